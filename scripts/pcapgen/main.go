package main

import (
	"flag"
	"log"
	"math/rand"
	"net"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

var (
	receiverIP  = net.IP{10, 2, 0, 1}
	receiverMAC = net.HardwareAddr{0x00, 0x66, 0x77, 0x88, 0x99, 0xAA}
)

type sender struct {
	ip      net.IP
	mac     net.HardwareAddr
	srcPort layers.TCPPort
	dstPort layers.TCPPort
	rate    float64 // Mbps
	next    time.Duration
	seq     uint32
}

func main() {
	outputFile := flag.String("o", "test.pcap", "Output pcap file path")
	seed := flag.Int64("seed", 1, "Random seed")
	duration := flag.Duration("duration", 10*time.Second, "Capture duration")
	payloadSize := flag.Int("size", 1000, "TCP payload size in bytes")
	rate1 := flag.Float64("rate1", 2.5, "Receive rate of flow 1 in Mbps")
	rate2 := flag.Float64("rate2", 2.5, "Receive rate of flow 2 in Mbps")
	ackEvery := flag.Int("ack", 2, "Emit one pure ACK from the receiver every N data packets, 0 for none")
	flag.Parse()

	f, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	pcapWriter := pcapgo.NewWriter(f)
	if err := pcapWriter.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		log.Fatalf("Failed to write pcap header: %v", err)
	}

	rng := rand.New(rand.NewSource(*seed))
	base := time.Unix(1700000000, 0)
	senders := []*sender{
		{ip: net.IP{10, 1, 0, 1}, mac: net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x01}, srcPort: 40001, dstPort: 5001, rate: *rate1},
		{ip: net.IP{10, 1, 0, 2}, mac: net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x02}, srcPort: 40002, dstPort: 5002, rate: *rate2},
	}
	payload := make([]byte, *payloadSize)

	log.Printf("Generating a %s two-flow capture into %s...", *duration, *outputFile)

	count := 0
	for {
		// next sender in time order
		var s *sender
		for _, c := range senders {
			if c.rate > 0 && (s == nil || c.next < s.next) {
				s = c
			}
		}
		if s == nil || s.next >= *duration {
			break
		}

		rng.Read(payload)
		data := serialize(s.mac, receiverMAC, s.ip, receiverIP, s.srcPort, s.dstPort, s.seq, payload)
		writePacket(pcapWriter, base.Add(s.next), data)
		count++

		if *ackEvery > 0 && count%*ackEvery == 0 {
			ack := serialize(receiverMAC, s.mac, receiverIP, s.ip, s.dstPort, s.srcPort, 0, nil)
			writePacket(pcapWriter, base.Add(s.next+50*time.Microsecond), ack)
		}

		s.seq += uint32(len(payload))
		wire := float64(len(data)*8) / (s.rate * 1e6)
		s.next += time.Duration(wire * (0.5 + rng.Float64()) * float64(time.Second))
	}

	log.Printf("Successfully generated %d data packets into %s.", count, *outputFile)
}

func serialize(srcMAC, dstMAC net.HardwareAddr, srcIP, dstIP net.IP, srcPort, dstPort layers.TCPPort, seq uint32, payload []byte) []byte {
	ethLayer := &layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       dstMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ipLayer := &layers.IPv4{
		SrcIP:    srcIP,
		DstIP:    dstIP,
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
	}
	tcpLayer := &layers.TCP{
		SrcPort: srcPort,
		DstPort: dstPort,
		Seq:     seq,
		ACK:     true,
		PSH:     len(payload) > 0,
		Window:  14600,
	}
	tcpLayer.SetNetworkLayerForChecksum(ipLayer)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		ComputeChecksums: true,
		FixLengths:       true,
	}
	if err := gopacket.SerializeLayers(buf, opts, ethLayer, ipLayer, tcpLayer, gopacket.Payload(payload)); err != nil {
		log.Fatalf("Failed to serialize layers: %v", err)
	}
	return buf.Bytes()
}

func writePacket(w *pcapgo.Writer, at time.Time, data []byte) {
	ci := gopacket.CaptureInfo{
		Timestamp:     at,
		CaptureLength: len(data),
		Length:        len(data),
	}
	if err := w.WritePacket(ci, data); err != nil {
		log.Fatalf("Failed to write packet: %v", err)
	}
}

package api

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// NewGRPCServer creates a gRPC server exposing the result service and the
// standard health service.
func NewGRPCServer(svc *Service, opts ...grpc.ServerOption) *grpc.Server {
	s := grpc.NewServer(opts...)
	RegisterResultServiceServer(s, svc)

	hs := health.NewServer()
	hs.SetServingStatus(ResultServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return s
}

// NewRouter creates the HTTP routes of the query API.
func NewRouter(svc *Service) *mux.Router {
	h := &handler{svc: svc}
	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.healthz).Methods("GET")
	r.HandleFunc("/api/v1/results", h.listResults).Methods("GET")
	r.HandleFunc("/api/v1/results/{name}", h.getResult).Methods("GET")
	return r
}

// handler holds the dependencies for API handlers.
type handler struct {
	svc *Service
}

func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// listResults handles GET /api/v1/results.
func (h *handler) listResults(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListResults(r.Context(), &emptypb.Empty{})
	if err != nil {
		writeError(w, err)
		return
	}
	body := &structpb.Struct{Fields: map[string]*structpb.Value{
		"results": structpb.NewListValue(list),
	}}
	writeJSON(w, body)
}

// getResult handles GET /api/v1/results/{name}?group=.
func (h *handler) getResult(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	key := name
	if group := r.URL.Query().Get("group"); group != "" {
		key = group + "/" + name
	}
	res, err := h.svc.GetResult(r.Context(), wrapperspb.String(key))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, res)
}

func writeJSON(w http.ResponseWriter, msg proto.Message) {
	jsonBytes, err := protojson.Marshal(msg)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to marshal response: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(jsonBytes)
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch status.Code(err) {
	case codes.NotFound:
		code = http.StatusNotFound
	case codes.InvalidArgument:
		code = http.StatusBadRequest
	default:
		log.Printf("API error: %v", err)
	}
	http.Error(w, status.Convert(err).Message(), code)
}

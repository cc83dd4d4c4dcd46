package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/alfredjeanlab/issuefacets/internal/facet"
)

// QueryServiceName is the fully qualified gRPC service name.
const QueryServiceName = "issuefacets.v1.QueryService"

// QueryServiceServer exposes the facet model over gRPC. Messages are
// structpb.Struct values shaped like the HTTP JSON bodies.
type QueryServiceServer interface {
	// Compose applies a list of panel actions to the selection a query was
	// composed from and returns the resulting query parameters.
	Compose(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	// Search runs a search with facet counts.
	Search(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var queryServiceDesc = grpc.ServiceDesc{
	ServiceName: QueryServiceName,
	HandlerType: (*QueryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Compose", Handler: unaryStructHandler("Compose", QueryServiceServer.Compose)},
		{MethodName: "Search", Handler: unaryStructHandler("Search", QueryServiceServer.Search)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "issuefacets/v1/query.proto",
}

func unaryStructHandler(method string, call func(QueryServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	fullMethod := "/" + QueryServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(QueryServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(QueryServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// NewGRPCServer creates a gRPC server with standard interceptors, registers
// the QueryService, the health service and reflection. The returned health
// server starts NOT_SERVING; feed it with WatchHealth.
func NewGRPCServer(fs *FacetsServer, authToken string) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor,
			LoggingInterceptor,
			AuthInterceptor(authToken),
		),
	)

	srv.RegisterService(&queryServiceDesc, fs)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(QueryServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	reflection.Register(srv)
	return srv, hs
}

// WatchHealth mirrors the liveness checker into hs until ctx is done.
func (s *FacetsServer) WatchHealth(ctx context.Context, hs *health.Server, interval time.Duration) {
	s.checker.Watch(ctx, interval, slog.Default(), func(alive bool) {
		st := healthpb.HealthCheckResponse_NOT_SERVING
		if alive {
			st = healthpb.HealthCheckResponse_SERVING
		}
		hs.SetServingStatus("", st)
		hs.SetServingStatus(QueryServiceName, st)
	})
}

// Compose implements QueryServiceServer. The request carries an optional
// "query" object of search parameters and an "actions" list; each action
// has "op", "dimension" and, depending on op, "value", "extend", "date"
// or "on".
func (s *FacetsServer) Compose(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sel, err := selectionFromStruct(req.GetFields()["query"])
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	for i, v := range req.GetFields()["actions"].GetListValue().GetValues() {
		a, err := actionFromStruct(v.GetStructValue())
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "actions[%d]: %v", i, err)
		}
		if sel, err = facet.Reduce(sel, a); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "actions[%d]: %v", i, err)
		}
	}

	params := facet.Compose(sel).Params()
	dims := make([]any, 0, sel.Len())
	for _, d := range sel.Dimensions() {
		dims = append(dims, string(d))
	}
	out, err := structpb.NewStruct(map[string]any{"query": params, "dimensions": dims})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// Search implements QueryServiceServer. The request carries "query",
// "facets" and optionally "viewer"; the response is the search result.
func (s *FacetsServer) Search(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	values, err := valuesFromStruct(req.GetFields()["query"].GetStructValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	q, err := facet.ParseValues(values)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	var names []string
	for _, v := range req.GetFields()["facets"].GetListValue().GetValues() {
		names = append(names, v.GetStringValue())
	}
	viewer := req.GetFields()["viewer"].GetStringValue()
	if viewer == "" {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(strings.ToLower(viewerHeader)); len(vals) > 0 {
				viewer = vals[0]
			}
		}
	}

	res, err := s.search(ctx, q, names, viewer)
	if err != nil {
		var ie inputError
		if errors.As(err, &ie) {
			return nil, status.Error(codes.InvalidArgument, ie.Error())
		}
		return nil, status.Errorf(codes.Internal, "%v", err)
	}
	return toStruct(res)
}

func selectionFromStruct(v *structpb.Value) (facet.Selection, error) {
	if v == nil {
		return facet.Selection{}, nil
	}
	values, err := valuesFromStruct(v.GetStructValue())
	if err != nil {
		return facet.Selection{}, err
	}
	q, err := facet.ParseValues(values)
	if err != nil {
		return facet.Selection{}, err
	}
	return facet.Decompose(q)
}

func actionFromStruct(st *structpb.Struct) (facet.Action, error) {
	f := st.GetFields()
	op, err := facet.ParseOp(f["op"].GetStringValue())
	if err != nil {
		return facet.Action{}, err
	}
	d, err := facet.ParseDimension(f["dimension"].GetStringValue())
	if err != nil {
		return facet.Action{}, err
	}
	switch op {
	case facet.OpToggle:
		return facet.Toggled(d, f["value"].GetStringValue()), nil
	case facet.OpClick:
		return facet.Clicked(d, f["value"].GetStringValue(), f["extend"].GetBoolValue()), nil
	case facet.OpClear:
		return facet.Cleared(d), nil
	}
	if d.Kind() == facet.Date {
		var t time.Time
		if s := f["date"].GetStringValue(); s != "" {
			if t, err = time.Parse(facet.DateLayout, s); err != nil {
				return facet.Action{}, fmt.Errorf("date: %w", err)
			}
		}
		return facet.ScalarSet(d, facet.DateValue(t)), nil
	}
	return facet.ScalarSet(d, facet.FlagValue(f["on"].GetBoolValue())), nil
}

// valuesFromStruct flattens a parameter object into URL values. Each list
// element becomes a repeated parameter, the form facet.ParseValues reads.
func valuesFromStruct(st *structpb.Struct) (url.Values, error) {
	v := url.Values{}
	for k, val := range st.GetFields() {
		switch x := val.GetKind().(type) {
		case *structpb.Value_StringValue:
			v.Set(k, x.StringValue)
		case *structpb.Value_BoolValue:
			v.Set(k, strconv.FormatBool(x.BoolValue))
		case *structpb.Value_NumberValue:
			v.Set(k, strconv.FormatFloat(x.NumberValue, 'f', -1, 64))
		case *structpb.Value_ListValue:
			for _, e := range x.ListValue.GetValues() {
				v.Add(k, e.GetStringValue())
			}
		case *structpb.Value_NullValue:
		default:
			return nil, fmt.Errorf("query.%s: unsupported value", k)
		}
	}
	return v, nil
}

// toStruct converts a JSON-encodable value into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

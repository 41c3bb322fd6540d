package api

import (
	"context"
	"encoding/json"
	"math"
	"strconv"

	"hotelpos/internal/domain"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const frontDeskServiceName = "hotelpos.frontdesk.v1.FrontDeskService"

// frontDeskServer is the read-only kiosk feed. Messages are
// google.protobuf.Struct so kiosks need no generated stubs.
type frontDeskServer interface {
	GetInvoice(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListOpenInvoices(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListActiveReservations(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetRoomReservations(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var frontDeskServiceDesc = grpc.ServiceDesc{
	ServiceName: frontDeskServiceName,
	HandlerType: (*frontDeskServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetInvoice", Handler: structHandler("GetInvoice", frontDeskServer.GetInvoice)},
		{MethodName: "ListOpenInvoices", Handler: structHandler("ListOpenInvoices", frontDeskServer.ListOpenInvoices)},
		{MethodName: "ListActiveReservations", Handler: structHandler("ListActiveReservations", frontDeskServer.ListActiveReservations)},
		{MethodName: "GetRoomReservations", Handler: structHandler("GetRoomReservations", frontDeskServer.GetRoomReservations)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hotelpos/frontdesk/v1/frontdesk.proto",
}

type structMethod func(srv frontDeskServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func structHandler(method string, call structMethod) grpc.MethodHandler {
	fullMethod := "/" + frontDeskServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(frontDeskServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(frontDeskServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

type FrontDeskService struct {
	invoices     domain.InvoiceService
	reservations domain.ReservationService
}

var _ frontDeskServer = (*FrontDeskService)(nil)

func NewFrontDeskService(invoices domain.InvoiceService, reservations domain.ReservationService) *FrontDeskService {
	return &FrontDeskService{invoices: invoices, reservations: reservations}
}

func (s *FrontDeskService) GetInvoice(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := idField(req, "id")
	if err != nil {
		return nil, err
	}
	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct("invoice", inv)
}

func (s *FrontDeskService) ListOpenInvoices(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	invoices, err := s.invoices.GetOpen(ctx)
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct("invoices", invoices)
}

func (s *FrontDeskService) ListActiveReservations(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	reservations, err := s.reservations.GetActiveReservations(ctx)
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct("reservations", reservations)
}

func (s *FrontDeskService) GetRoomReservations(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	roomID, err := idField(req, "room_id")
	if err != nil {
		return nil, err
	}
	reservations, err := s.reservations.GetRoomReservations(ctx, roomID)
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct("reservations", reservations)
}

// idField reads a positive integer id given as a number or a numeric string.
func idField(req *structpb.Struct, name string) (int64, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}

	var id int64
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		if k.NumberValue != math.Trunc(k.NumberValue) {
			return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", name)
		}
		id = int64(k.NumberValue)
	case *structpb.Value_StringValue:
		parsed, err := strconv.ParseInt(k.StringValue, 10, 64)
		if err != nil {
			return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", name)
		}
		id = parsed
	default:
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", name)
	}
	if id <= 0 {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be positive", name)
	}
	return id, nil
}

// toStruct renders v under key using its JSON form, so the feed matches the
// HTTP API field for field.
func toStruct(key string, v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(map[string]any{key: v})
	if err != nil {
		return nil, status.Error(codes.Internal, "encode response")
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Error(codes.Internal, "encode response")
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode response")
	}
	return out, nil
}

type FrontDeskClient struct {
	cc grpc.ClientConnInterface
}

func NewFrontDeskClient(cc grpc.ClientConnInterface) *FrontDeskClient {
	return &FrontDeskClient{cc: cc}
}

func (c *FrontDeskClient) GetInvoice(ctx context.Context, id int64, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "GetInvoice", map[string]any{"id": id}, opts...)
}

func (c *FrontDeskClient) ListOpenInvoices(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "ListOpenInvoices", nil, opts...)
}

func (c *FrontDeskClient) ListActiveReservations(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "ListActiveReservations", nil, opts...)
}

func (c *FrontDeskClient) GetRoomReservations(ctx context.Context, roomID int64, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "GetRoomReservations", map[string]any{"room_id": roomID}, opts...)
}

func (c *FrontDeskClient) call(ctx context.Context, method string, fields map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+frontDeskServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

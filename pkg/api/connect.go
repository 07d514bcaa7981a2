package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const (
	// RoomServiceName is the fully-qualified name of the RoomService service.
	RoomServiceName = "manito.v1.RoomService"
	// AuthServiceName is the fully-qualified name of the AuthService service.
	AuthServiceName = "manito.v1.AuthService"
)

// Procedure paths, used for routing and in interceptors.
const (
	RoomServiceCreateRoomProcedure        = "/manito.v1.RoomService/CreateRoom"
	RoomServiceGetRoomProcedure           = "/manito.v1.RoomService/GetRoom"
	RoomServiceEnterRoomProcedure         = "/manito.v1.RoomService/EnterRoom"
	RoomServiceRevealProcedure            = "/manito.v1.RoomService/Reveal"
	RoomServiceRematchProcedure           = "/manito.v1.RoomService/Rematch"
	RoomServiceWatchRoomProcedure         = "/manito.v1.RoomService/WatchRoom"
	RoomServiceWatchParticipantsProcedure = "/manito.v1.RoomService/WatchParticipants"

	AuthServiceClaimProcedure       = "/manito.v1.AuthService/Claim"
	AuthServiceGetMyTargetProcedure = "/manito.v1.AuthService/GetMyTarget"
)

// RoomServiceHandler is implemented by the room lifecycle service.
type RoomServiceHandler interface {
	CreateRoom(context.Context, *connect.Request[CreateRoomRequest]) (*connect.Response[CreateRoomResponse], error)
	GetRoom(context.Context, *connect.Request[GetRoomRequest]) (*connect.Response[GetRoomResponse], error)
	EnterRoom(context.Context, *connect.Request[EnterRoomRequest]) (*connect.Response[EnterRoomResponse], error)
	Reveal(context.Context, *connect.Request[RevealRequest]) (*connect.Response[RevealResponse], error)
	Rematch(context.Context, *connect.Request[RematchRequest]) (*connect.Response[RematchResponse], error)
	WatchRoom(context.Context, *connect.Request[WatchRoomRequest], *connect.ServerStream[WatchRoomResponse]) error
	WatchParticipants(context.Context, *connect.Request[WatchParticipantsRequest], *connect.ServerStream[WatchParticipantsResponse]) error
}

// AuthServiceHandler is implemented by the identity claim service.
type AuthServiceHandler interface {
	Claim(context.Context, *connect.Request[ClaimRequest]) (*connect.Response[ClaimResponse], error)
	GetMyTarget(context.Context, *connect.Request[GetMyTargetRequest]) (*connect.Response[GetMyTargetResponse], error)
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
}

// NewRoomServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewRoomServiceHandler(svc RoomServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	createRoom := connect.NewUnaryHandler(RoomServiceCreateRoomProcedure, svc.CreateRoom, opts...)
	getRoom := connect.NewUnaryHandler(RoomServiceGetRoomProcedure, svc.GetRoom, opts...)
	enterRoom := connect.NewUnaryHandler(RoomServiceEnterRoomProcedure, svc.EnterRoom, opts...)
	reveal := connect.NewUnaryHandler(RoomServiceRevealProcedure, svc.Reveal, opts...)
	rematch := connect.NewUnaryHandler(RoomServiceRematchProcedure, svc.Rematch, opts...)
	watchRoom := connect.NewServerStreamHandler(RoomServiceWatchRoomProcedure, svc.WatchRoom, opts...)
	watchParticipants := connect.NewServerStreamHandler(RoomServiceWatchParticipantsProcedure, svc.WatchParticipants, opts...)

	return "/" + RoomServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case RoomServiceCreateRoomProcedure:
			createRoom.ServeHTTP(w, r)
		case RoomServiceGetRoomProcedure:
			getRoom.ServeHTTP(w, r)
		case RoomServiceEnterRoomProcedure:
			enterRoom.ServeHTTP(w, r)
		case RoomServiceRevealProcedure:
			reveal.ServeHTTP(w, r)
		case RoomServiceRematchProcedure:
			rematch.ServeHTTP(w, r)
		case RoomServiceWatchRoomProcedure:
			watchRoom.ServeHTTP(w, r)
		case RoomServiceWatchParticipantsProcedure:
			watchParticipants.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// NewAuthServiceHandler builds an HTTP handler from the service implementation.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	claim := connect.NewUnaryHandler(AuthServiceClaimProcedure, svc.Claim, opts...)
	getMyTarget := connect.NewUnaryHandler(AuthServiceGetMyTargetProcedure, svc.GetMyTarget, opts...)

	return "/" + AuthServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case AuthServiceClaimProcedure:
			claim.ServeHTTP(w, r)
		case AuthServiceGetMyTargetProcedure:
			getMyTarget.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// RoomServiceClient is a client for the manito.v1.RoomService service.
type RoomServiceClient struct {
	createRoom        *connect.Client[CreateRoomRequest, CreateRoomResponse]
	getRoom           *connect.Client[GetRoomRequest, GetRoomResponse]
	enterRoom         *connect.Client[EnterRoomRequest, EnterRoomResponse]
	reveal            *connect.Client[RevealRequest, RevealResponse]
	rematch           *connect.Client[RematchRequest, RematchResponse]
	watchRoom         *connect.Client[WatchRoomRequest, WatchRoomResponse]
	watchParticipants *connect.Client[WatchParticipantsRequest, WatchParticipantsResponse]
}

// NewRoomServiceClient constructs a client for the manito.v1.RoomService service.
func NewRoomServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *RoomServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &RoomServiceClient{
		createRoom:        connect.NewClient[CreateRoomRequest, CreateRoomResponse](httpClient, baseURL+RoomServiceCreateRoomProcedure, opts...),
		getRoom:           connect.NewClient[GetRoomRequest, GetRoomResponse](httpClient, baseURL+RoomServiceGetRoomProcedure, opts...),
		enterRoom:         connect.NewClient[EnterRoomRequest, EnterRoomResponse](httpClient, baseURL+RoomServiceEnterRoomProcedure, opts...),
		reveal:            connect.NewClient[RevealRequest, RevealResponse](httpClient, baseURL+RoomServiceRevealProcedure, opts...),
		rematch:           connect.NewClient[RematchRequest, RematchResponse](httpClient, baseURL+RoomServiceRematchProcedure, opts...),
		watchRoom:         connect.NewClient[WatchRoomRequest, WatchRoomResponse](httpClient, baseURL+RoomServiceWatchRoomProcedure, opts...),
		watchParticipants: connect.NewClient[WatchParticipantsRequest, WatchParticipantsResponse](httpClient, baseURL+RoomServiceWatchParticipantsProcedure, opts...),
	}
}

func (c *RoomServiceClient) CreateRoom(ctx context.Context, req *connect.Request[CreateRoomRequest]) (*connect.Response[CreateRoomResponse], error) {
	return c.createRoom.CallUnary(ctx, req)
}

func (c *RoomServiceClient) GetRoom(ctx context.Context, req *connect.Request[GetRoomRequest]) (*connect.Response[GetRoomResponse], error) {
	return c.getRoom.CallUnary(ctx, req)
}

func (c *RoomServiceClient) EnterRoom(ctx context.Context, req *connect.Request[EnterRoomRequest]) (*connect.Response[EnterRoomResponse], error) {
	return c.enterRoom.CallUnary(ctx, req)
}

func (c *RoomServiceClient) Reveal(ctx context.Context, req *connect.Request[RevealRequest]) (*connect.Response[RevealResponse], error) {
	return c.reveal.CallUnary(ctx, req)
}

func (c *RoomServiceClient) Rematch(ctx context.Context, req *connect.Request[RematchRequest]) (*connect.Response[RematchResponse], error) {
	return c.rematch.CallUnary(ctx, req)
}

func (c *RoomServiceClient) WatchRoom(ctx context.Context, req *connect.Request[WatchRoomRequest]) (*connect.ServerStreamForClient[WatchRoomResponse], error) {
	return c.watchRoom.CallServerStream(ctx, req)
}

func (c *RoomServiceClient) WatchParticipants(ctx context.Context, req *connect.Request[WatchParticipantsRequest]) (*connect.ServerStreamForClient[WatchParticipantsResponse], error) {
	return c.watchParticipants.CallServerStream(ctx, req)
}

// AuthServiceClient is a client for the manito.v1.AuthService service.
type AuthServiceClient struct {
	claim       *connect.Client[ClaimRequest, ClaimResponse]
	getMyTarget *connect.Client[GetMyTargetRequest, GetMyTargetResponse]
}

// NewAuthServiceClient constructs a client for the manito.v1.AuthService service.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &AuthServiceClient{
		claim:       connect.NewClient[ClaimRequest, ClaimResponse](httpClient, baseURL+AuthServiceClaimProcedure, opts...),
		getMyTarget: connect.NewClient[GetMyTargetRequest, GetMyTargetResponse](httpClient, baseURL+AuthServiceGetMyTargetProcedure, opts...),
	}
}

func (c *AuthServiceClient) Claim(ctx context.Context, req *connect.Request[ClaimRequest]) (*connect.Response[ClaimResponse], error) {
	return c.claim.CallUnary(ctx, req)
}

func (c *AuthServiceClient) GetMyTarget(ctx context.Context, req *connect.Request[GetMyTargetRequest]) (*connect.Response[GetMyTargetResponse], error) {
	return c.getMyTarget.CallUnary(ctx, req)
}

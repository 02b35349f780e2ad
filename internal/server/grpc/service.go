package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const (
	ServiceName      = "wordrush.game.v1.Game"
	GetWordsMethod   = "/" + ServiceName + "/GetWords"
	SaveGameMethod   = "/" + ServiceName + "/SaveGame"
	GetProfileMethod = "/" + ServiceName + "/GetProfile"
)

type Word struct {
	Word          string `json:"word"`
	Level         string `json:"level"`
	ReadingTimeMs int64  `json:"readingTimeMs"`
}

type GetWordsRequest struct{}

type GetWordsResponse struct {
	Level              string `json:"level"`
	Words              []Word `json:"words"`
	TotalReadingTimeMs int64  `json:"totalReadingTimeMs"`
}

type SaveGameRequest struct {
	WordsRead  []string `json:"wordsRead"`
	Difficulty string   `json:"difficulty"`
}

type SaveGameResponse struct {
	ID string `json:"id"`
}

type GetProfileRequest struct{}

type GetProfileResponse struct {
	Level  string `json:"level"`
	Easy   int    `json:"easy"`
	Medium int    `json:"medium"`
	Hard   int    `json:"hard"`
	Series []int  `json:"series"`
}

// GameServer is the server API of the game service.
type GameServer interface {
	GetWords(context.Context, *GetWordsRequest) (*GetWordsResponse, error)
	SaveGame(context.Context, *SaveGameRequest) (*SaveGameResponse, error)
	GetProfile(context.Context, *GetProfileRequest) (*GetProfileResponse, error)
}

func RegisterGameServer(s grpc.ServiceRegistrar, srv GameServer) {
	s.RegisterService(&gameServiceDesc, srv)
}

var gameServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GameServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetWords", Handler: unary(GetWordsMethod, GameServer.GetWords)},
		{MethodName: "SaveGame", Handler: unary(SaveGameMethod, GameServer.SaveGame)},
		{MethodName: "GetProfile", Handler: unary(GetProfileMethod, GameServer.GetProfile)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "wordrush/game/v1",
}

func unary[Req, Resp any](fullMethod string, call func(GameServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(GameServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(GameServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// GameClient calls the game service over a connection using the JSON codec.
type GameClient struct {
	cc grpc.ClientConnInterface
}

func NewGameClient(cc grpc.ClientConnInterface) *GameClient {
	return &GameClient{cc: cc}
}

func (c *GameClient) GetWords(ctx context.Context, in *GetWordsRequest, opts ...grpc.CallOption) (*GetWordsResponse, error) {
	out := new(GetWordsResponse)
	if err := c.invoke(ctx, GetWordsMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *GameClient) SaveGame(ctx context.Context, in *SaveGameRequest, opts ...grpc.CallOption) (*SaveGameResponse, error) {
	out := new(SaveGameResponse)
	if err := c.invoke(ctx, SaveGameMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *GameClient) GetProfile(ctx context.Context, in *GetProfileRequest, opts ...grpc.CallOption) (*GetProfileResponse, error) {
	out := new(GetProfileResponse)
	if err := c.invoke(ctx, GetProfileMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *GameClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

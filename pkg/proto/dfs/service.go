package dfs

import (
	"context"

	"google.golang.org/grpc"
)

const serviceName = "simpledfs.DFS"

// DFSClient is the client API for the DFS service.
type DFSClient interface {
	RequestLock(ctx context.Context, in *LockRequest, opts ...grpc.CallOption) (*LockResponse, error)
	Store(ctx context.Context, in *FileData, opts ...grpc.CallOption) (*StatusResponse, error)
	Fetch(ctx context.Context, in *FileRequest, opts ...grpc.CallOption) (*FileData, error)
	List(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*FileList, error)
	GetVersion(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*VersionResponse, error)
}

type dfsClient struct {
	cc grpc.ClientConnInterface
}

// NewDFSClient returns a DFSClient that issues calls over `cc`.
func NewDFSClient(cc grpc.ClientConnInterface) DFSClient {
	return &dfsClient{cc}
}

func (c *dfsClient) RequestLock(ctx context.Context, in *LockRequest, opts ...grpc.CallOption) (*LockResponse, error) {
	out := new(LockResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/RequestLock", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dfsClient) Store(ctx context.Context, in *FileData, opts ...grpc.CallOption) (*StatusResponse, error) {
	out := new(StatusResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Store", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dfsClient) Fetch(ctx context.Context, in *FileRequest, opts ...grpc.CallOption) (*FileData, error) {
	out := new(FileData)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Fetch", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dfsClient) List(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*FileList, error) {
	out := new(FileList)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/List", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dfsClient) GetVersion(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*VersionResponse, error) {
	out := new(VersionResponse)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/GetVersion", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// DFSServer is the server API for the DFS service.
type DFSServer interface {
	RequestLock(context.Context, *LockRequest) (*LockResponse, error)
	Store(context.Context, *FileData) (*StatusResponse, error)
	Fetch(context.Context, *FileRequest) (*FileData, error)
	List(context.Context, *Empty) (*FileList, error)
	GetVersion(context.Context, *Empty) (*VersionResponse, error)
}

// RegisterDFSServer registers `srv` with the gRPC server `s`.
func RegisterDFSServer(s *grpc.Server, srv DFSServer) {
	s.RegisterService(&serviceDesc, srv)
}

// unaryHandler adapts a typed DFSServer method into a grpc.MethodDesc
// handler.
func unaryHandler(method string, newReq func() interface{},
	call func(DFSServer, context.Context, interface{}) (interface{}, error)) grpc.MethodDesc {

	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error,
			interceptor grpc.UnaryServerInterceptor) (interface{}, error) {

			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(DFSServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + serviceName + "/" + method,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(DFSServer), ctx, req)
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*DFSServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("RequestLock", func() interface{} { return new(LockRequest) },
			func(srv DFSServer, ctx context.Context, req interface{}) (interface{}, error) {
				return srv.RequestLock(ctx, req.(*LockRequest))
			}),
		unaryHandler("Store", func() interface{} { return new(FileData) },
			func(srv DFSServer, ctx context.Context, req interface{}) (interface{}, error) {
				return srv.Store(ctx, req.(*FileData))
			}),
		unaryHandler("Fetch", func() interface{} { return new(FileRequest) },
			func(srv DFSServer, ctx context.Context, req interface{}) (interface{}, error) {
				return srv.Fetch(ctx, req.(*FileRequest))
			}),
		unaryHandler("List", func() interface{} { return new(Empty) },
			func(srv DFSServer, ctx context.Context, req interface{}) (interface{}, error) {
				return srv.List(ctx, req.(*Empty))
			}),
		unaryHandler("GetVersion", func() interface{} { return new(Empty) },
			func(srv DFSServer, ctx context.Context, req interface{}) (interface{}, error) {
				return srv.GetVersion(ctx, req.(*Empty))
			}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dfs.proto",
}

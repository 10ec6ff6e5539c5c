package rpcserver

import (
	"context"

	"google.golang.org/grpc"
)

// serviceName is the gRPC service path every method is registered under.
// There being no .proto file, this string is the entire wire contract for
// routing; it is never regenerated, only hand-edited alongside desc.go.
const serviceName = "kari.agent.Agent"

// serviceDesc is the hand-authored equivalent of what protoc-gen-go-grpc
// would emit from a .proto file. Each entry binds a wire method name to a
// typed handler; grpc.Server dispatches purely on this table plus the
// registered codec, which is why no protobuf-generated types are needed.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*interface{})(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetSystemStatus", Handler: getSystemStatusHandler},
		{MethodName: "ExecutePackageCommand", Handler: executePackageCommandHandler},
		{MethodName: "ProvisionAppJail", Handler: provisionAppJailHandler},
		{MethodName: "ManageService", Handler: manageServiceHandler},
		{MethodName: "DeleteDeployment", Handler: deleteDeploymentHandler},
		{MethodName: "TeardownJail", Handler: teardownJailHandler},
		{MethodName: "WriteSystemFile", Handler: writeSystemFileHandler},
		{MethodName: "InstallCertificate", Handler: installCertificateHandler},
		{MethodName: "ApplyFirewallPolicy", Handler: applyFirewallPolicyHandler},
		{MethodName: "ScheduleJob", Handler: scheduleJobHandler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamDeployment",
			ServerStreams: true,
			Handler:       streamDeploymentHandler,
		},
	},
	Metadata: "kari-agent.rpc",
}

func getSystemStatusHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(GetSystemStatusRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	h := srv.(*handlers)
	if interceptor == nil {
		return h.GetSystemStatus(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/GetSystemStatus"}
	return interceptor(ctx, req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return h.GetSystemStatus(ctx, req.(*GetSystemStatusRequest))
	})
}

func executePackageCommandHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(ExecutePackageCommandRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	h := srv.(*handlers)
	if interceptor == nil {
		return h.ExecutePackageCommand(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/ExecutePackageCommand"}
	return interceptor(ctx, req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return h.ExecutePackageCommand(ctx, req.(*ExecutePackageCommandRequest))
	})
}

func provisionAppJailHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(ProvisionAppJailRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	h := srv.(*handlers)
	if interceptor == nil {
		return h.ProvisionAppJail(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/ProvisionAppJail"}
	return interceptor(ctx, req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return h.ProvisionAppJail(ctx, req.(*ProvisionAppJailRequest))
	})
}

func manageServiceHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(ManageServiceRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	h := srv.(*handlers)
	if interceptor == nil {
		return h.ManageService(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/ManageService"}
	return interceptor(ctx, req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return h.ManageService(ctx, req.(*ManageServiceRequest))
	})
}

func deleteDeploymentHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(DeleteDeploymentRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	h := srv.(*handlers)
	if interceptor == nil {
		return h.DeleteDeployment(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/DeleteDeployment"}
	return interceptor(ctx, req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return h.DeleteDeployment(ctx, req.(*DeleteDeploymentRequest))
	})
}

func teardownJailHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(TeardownJailRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	h := srv.(*handlers)
	if interceptor == nil {
		return h.TeardownJail(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/TeardownJail"}
	return interceptor(ctx, req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return h.TeardownJail(ctx, req.(*TeardownJailRequest))
	})
}

func writeSystemFileHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(WriteSystemFileRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	h := srv.(*handlers)
	if interceptor == nil {
		return h.WriteSystemFile(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/WriteSystemFile"}
	return interceptor(ctx, req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return h.WriteSystemFile(ctx, req.(*WriteSystemFileRequest))
	})
}

func installCertificateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(InstallCertificateRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	h := srv.(*handlers)
	if interceptor == nil {
		return h.InstallCertificate(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/InstallCertificate"}
	return interceptor(ctx, req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return h.InstallCertificate(ctx, req.(*InstallCertificateRequest))
	})
}

func applyFirewallPolicyHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(ApplyFirewallPolicyRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	h := srv.(*handlers)
	if interceptor == nil {
		return h.ApplyFirewallPolicy(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/ApplyFirewallPolicy"}
	return interceptor(ctx, req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return h.ApplyFirewallPolicy(ctx, req.(*ApplyFirewallPolicyRequest))
	})
}

func scheduleJobHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(ScheduleJobRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	h := srv.(*handlers)
	if interceptor == nil {
		return h.ScheduleJob(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/ScheduleJob"}
	return interceptor(ctx, req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return h.ScheduleJob(ctx, req.(*ScheduleJobRequest))
	})
}

func streamDeploymentHandler(srv interface{}, stream grpc.ServerStream) error {
	req := new(StreamDeploymentRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	h := srv.(*handlers)
	return h.StreamDeployment(req, stream)
}

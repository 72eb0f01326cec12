package e2e

import (
	"bytes"
	"chat-hub/client"
	grpcclient "chat-hub/infrastructure/grpc/client"
	"chat-hub/services"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

type BaseHubSuite struct {
	suite.Suite
	Config Config
	http   *http.Client
}

func (s *BaseHubSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.HTTPAddr == "" {
		s.T().Skip("HUB_HTTP_ADDR is not set")
	}
	s.http = &http.Client{Timeout: 10 * time.Second}
}

func (s *BaseHubSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Call sends a JSON request to the REST API and decodes the answer into out.
func (s *BaseHubSuite) Call(method, path, token string, body, out any) int {
	var payload bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&payload).Encode(body))
	}
	req, err := http.NewRequest(method, strings.TrimRight(s.Config.HTTPAddr, "/")+path, &payload)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.http.Do(req)
	s.Require().NoError(err)
	defer func() { _ = resp.Body.Close() }()
	if out != nil && resp.StatusCode < 300 {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// Register creates a throwaway account.
func (s *BaseHubSuite) Register(name string) services.AuthView {
	var view services.AuthView
	code := s.Call(http.MethodPost, "/api/user", "", map[string]string{
		"name":     name,
		"email":    fmt.Sprintf("%s-%d@e2e.test", strings.ToLower(name), time.Now().UnixNano()),
		"password": "E2e-Passw0rd-" + name,
	}, &view)
	s.Require().Equal(http.StatusCreated, code)
	return view
}

// Socket opens a real-time connection for an account.
func (s *BaseHubSuite) Socket(ctx context.Context, token string) *client.Client {
	url := "ws" + strings.TrimPrefix(strings.TrimRight(s.Config.HTTPAddr, "/"), "http") + "/ws"
	c := client.New(logs.GetLoggerFromLevel(slog.LevelDebug), client.Config{
		URL:              url,
		Token:            token,
		HandshakeTimeout: 5 * time.Second,
		WriteTimeout:     5 * time.Second,
	})
	s.Require().NoError(c.Connect(ctx))
	s.T().Cleanup(func() { _ = c.Close() })
	return c
}

// GrpcConn dials the admin endpoint, logging every call.
func (s *BaseHubSuite) GrpcConn(t *testing.T, name string) *grpc.ClientConn {
	s.Step(name)
	marshaler := protojson.MarshalOptions{
		UseProtoNames:   true,
		Multiline:       true,
		EmitUnpopulated: true,
	}

	conn, err := grpc.NewClient(s.Config.GRPCAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			start := time.Now()
			err := invoker(ctx, method, req, reply, cc, opts...)

			logBuilder := strings.Builder{}
			fmt.Fprintf(&logBuilder, "GRPC %s [%s] in %v", method, status.Code(err), time.Since(start))
			if s.Config.DebugJSON {
				fmt.Fprintln(&logBuilder, "\nREQUEST:")
				fmt.Fprintln(&logBuilder, marshaler.Format(req.(proto.Message)))
				if err != nil {
					fmt.Fprintln(&logBuilder, "ERROR:", err)
				} else {
					fmt.Fprintln(&logBuilder, "RESPONSE:")
					fmt.Fprintln(&logBuilder, marshaler.Format(reply.(proto.Message)))
				}
			}
			t.Log(logBuilder.String())
			return err
		}),
	)
	s.Require().NoError(err, "Failed to connect to gRPC server at "+s.Config.GRPCAddr)
	return conn
}

func (s *BaseHubSuite) WithAdmin(name string, fn func(ctx context.Context, admin *grpcclient.AdminClient)) {
	conn := s.GrpcConn(s.T(), name)
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	fn(ctx, grpcclient.NewAdminClient(conn, s.Config.AdminToken))
}

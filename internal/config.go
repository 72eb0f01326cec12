package internal

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Host       string `env:"HOST,default=0.0.0.0"`
	Port       int    `env:"PORT,default=5000"`
	GRPCPort   int    `env:"GRPC_PORT,default=50051"`
	LogLevel   string `env:"LOG_LEVEL,default=INFO"`
	InstanceID string `env:"INSTANCE_ID"`

	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=720h"`

	BadgerFilepath     string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath      string `env:"BLUGE_FILEPATH,required=true"`
	DebugInspectorPort int    `env:"DEBUG_INSPECTOR_PORT,default=0"`
	LimitMessages      *int   `env:"LIMIT_MESSAGES"`
	SearchLimit        int    `env:"SEARCH_LIMIT,default=20"`

	AllowedOrigins       string        `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	SocketAuthRequired   bool          `env:"SOCKET_AUTH_REQUIRED,default=false"`
	MaxMessageSize       int64         `env:"MAX_MESSAGE_SIZE,default=65536"`
	MaxBodySize          int64         `env:"MAX_BODY_SIZE,default=5242880"`
	PingTimeout          time.Duration `env:"PING_TIMEOUT,default=60s"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	RateLimit            float64       `env:"RATE_LIMIT,default=20"`
	RateBurst            int           `env:"RATE_BURST,default=40"`
	TypingTimeout        time.Duration `env:"TYPING_TIMEOUT,default=5s"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`

	BufferSize      int           `env:"BUFFER_SIZE,default=1024"`
	SinkTimeout     time.Duration `env:"SINK_TIMEOUT,default=500ms"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=2s"`
	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=10s"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`
	RedisChannel  string `env:"REDIS_CHANNEL,default=chat-hub:rooms"`

	ModerationEnabled bool   `env:"MODERATION_ENABLED,default=true"`
	CensoredDir       string `env:"CENSORED_DIR"`
	CharReplacement   string `env:"CHARACTER_REPLACEMENT,default=*"`
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c Config) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}

package internal

import (
	"os"
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("BADGER_FILEPATH", "/tmp/badger")
	t.Setenv("BLUGE_FILEPATH", "/tmp/bluge")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000, https://app.example.com,")

	var config Config
	_, err := env.UnmarshalFromEnviron(&config)
	req.NoError(err)

	req.Equal(5000, config.Port)
	req.Equal(5*time.Second, config.TypingTimeout)
	req.Equal(60*time.Second, config.PingTimeout)
	req.Equal(int64(5<<20), config.MaxBodySize)
	req.True(config.ModerationEnabled)
	req.Nil(config.LimitMessages)
	req.Equal([]string{"http://localhost:3000", "https://app.example.com"}, config.Origins())
}

func TestConfig_Missing_Secret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))
	t.Setenv("BADGER_FILEPATH", "/tmp/badger")
	t.Setenv("BLUGE_FILEPATH", "/tmp/bluge")
	var config Config
	_, err := env.UnmarshalFromEnviron(&config)
	require.Error(t, err)
}

func TestCharacterRune(t *testing.T) {
	req := require.New(t)
	r, err := CharacterRune("€")
	req.NoError(err)
	req.Equal('€', r)

	_, err = CharacterRune("**")
	req.Error(err)
}

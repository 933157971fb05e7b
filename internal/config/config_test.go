package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("CAMPUS_JWT_SECRET", "secret")
	t.Setenv("CAMPUS_DATABASE_URL", "postgres://campus@localhost/campus")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":3000", cfg.HTTPAddress())
	require.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	require.Equal(t, 2*time.Minute, cfg.DashboardCacheTTL)
	require.Equal(t, 10, cfg.UploadMaxSizeMB)
	require.Equal(t, "campus", cfg.NATSSubjectPrefix)
	require.Equal(t, "/uploads/files", cfg.UploadPublicURL)
	require.False(t, cfg.CloudinaryEnabled())
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("CAMPUS_JWT_SECRET", "secret")
	t.Setenv("CAMPUS_DATABASE_URL", "postgres://campus@localhost/campus")
	t.Setenv("CAMPUS_APP_PORT", ":8080")
	t.Setenv("CAMPUS_JWT_EXPIRY", "90m")
	t.Setenv("CAMPUS_UPLOAD_MAX_SIZE_MB", "-1")
	t.Setenv("CAMPUS_AUTH_RATE_LIMIT", "3")
	t.Setenv("CAMPUS_UPLOAD_PUBLIC_URL", "https://cdn.campus.test/uploads")
	t.Setenv("CAMPUS_CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("CAMPUS_CLOUDINARY_API_KEY", "key")
	t.Setenv("CAMPUS_CLOUDINARY_API_SECRET", "shh")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, 90*time.Minute, cfg.JWTExpiry)
	require.Equal(t, 10, cfg.UploadMaxSizeMB)
	require.Equal(t, 3, cfg.AuthRateLimit)
	require.Equal(t, "https://cdn.campus.test/uploads", cfg.UploadPublicURL)
	require.True(t, cfg.CloudinaryEnabled())
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("CAMPUS_DATABASE_URL", "postgres://campus@localhost/campus")
	t.Setenv("CAMPUS_JWT_SECRET", "")
	_, err := Load()
	require.ErrorContains(t, err, "jwt secret")

	t.Setenv("CAMPUS_JWT_SECRET", "secret")
	t.Setenv("CAMPUS_DATABASE_URL", "")
	_, err = Load()
	require.ErrorContains(t, err, "database url")
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("CAMPUS_JWT_SECRET", "secret")
	t.Setenv("CAMPUS_DATABASE_URL", "postgres://campus@localhost/campus")
	t.Setenv("CAMPUS_DASHBOARD_CACHE_TTL", "soon")

	_, err := Load()
	require.ErrorContains(t, err, "dashboard cache ttl")
}

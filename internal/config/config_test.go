package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_PASS", "secret")
	t.Setenv("FB_APPS", `[{"id":"1234567890","access_token":"tok","verify_token":"vt"}]`)
}

func TestLoadReadsEnvironment(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("APP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 3307, cfg.DB.Port)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 9090, cfg.App.Port)
	require.Len(t, cfg.FacebookApps, 1)
	assert.Equal(t, "1234567890", cfg.FacebookApps[0].ID)
}

func TestLoadRequiresDBPassword(t *testing.T) {
	t.Setenv("DB_PASS", "")
	t.Setenv("FB_APPS", `[{"id":"1","access_token":"tok","verify_token":"vt"}]`)

	_, err := Load()
	assert.ErrorContains(t, err, "DB_PASS")
}

func TestLoadRequiresApps(t *testing.T) {
	t.Setenv("DB_PASS", "secret")

	t.Setenv("FB_APPS", "")
	_, err := Load()
	assert.ErrorContains(t, err, "FB_APPS")

	t.Setenv("FB_APPS", "[]")
	_, err = Load()
	assert.ErrorContains(t, err, "at least one")

	t.Setenv("FB_APPS", `[{"id":"1","access_token":"","verify_token":"vt"}]`)
	_, err = Load()
	assert.ErrorContains(t, err, "access_token")
}

func TestAppByID(t *testing.T) {
	cfg := &Config{FacebookApps: []FacebookApp{
		{ID: "1", AccessToken: "a", VerifyToken: "v"},
		{ID: "2", AccessToken: "b", VerifyToken: "w"},
	}}

	app, ok := cfg.AppByID("2")
	assert.True(t, ok)
	assert.Equal(t, "b", app.AccessToken)

	_, ok = cfg.AppByID("3")
	assert.False(t, ok)
}

func TestGetDSN(t *testing.T) {
	db := DBConfig{Host: "localhost", Port: 3306, User: "root", Password: "secret", Database: "inbox"}
	assert.Equal(t, "root:secret@tcp(localhost:3306)/inbox?parseTime=true", db.GetDSN())
}

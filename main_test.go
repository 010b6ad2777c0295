package main

import (
	"context"
	"testing"

	"github.com/kotrzina/skolmaten/pkg/config"
	"github.com/kotrzina/skolmaten/pkg/render"
	"github.com/kotrzina/skolmaten/pkg/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateStore(t *testing.T) {
	storage, err := createStore(context.Background(), &config.Config{Store: config.StoreMemory})
	require.NoError(t, err)
	assert.IsType(t, &store.FakeStore{}, storage)

	storage, err = createStore(context.Background(), &config.Config{Store: config.StoreRedis, RedisAddr: "localhost:6379"})
	require.NoError(t, err)
	assert.IsType(t, &store.RedisStore{}, storage)
}

func TestCreateRenderer(t *testing.T) {
	logger := createLogger(false)

	assert.IsType(t, &render.Static{}, createRenderer(&config.Config{Renderer: config.RendererStatic}, logger))
	assert.IsType(t, &render.Chrome{}, createRenderer(&config.Config{Renderer: config.RendererChrome}, logger))
}

func TestCreateLogger(t *testing.T) {
	assert.Equal(t, logrus.InfoLevel, createLogger(false).GetLevel())
	assert.Equal(t, logrus.DebugLevel, createLogger(true).GetLevel())
}

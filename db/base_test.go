// Package db
package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupMGO starts a throwaway mongo container. Tests using it are skipped
// when no docker daemon is reachable.
func setupMGO(t *testing.T) *mongoDB {
	t.Helper()
	dPool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	if err := dPool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mongo",
		Tag:        "latest",
	}
	mgoRes, err := dPool.RunWithOptions(runOpts, func(config *docker.HostConfig) {
		// set AutoRemove to true so that stopped container goes away by itself
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	require.NoError(t, err)
	require.NoError(t, mgoRes.Expire(60))
	t.Cleanup(func() {
		_ = dPool.Purge(mgoRes)
	})

	var mgo *mongoDB
	err = dPool.Retry(func() error {
		url := fmt.Sprintf("mongodb://localhost:%s", mgoRes.GetPort("27017/tcp"))
		cfg := Config{
			URL:     url,
			Logger:  zap.NewNop(),
			MinConn: 1,
			MaxConn: 4,
			DbName:  "governance",
		}
		var err error
		mgo, err = newMongoDB(cfg)
		return err
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = mgo.Close(context.Background())
	})
	return mgo
}

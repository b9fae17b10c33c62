package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/xy-planning-network/waypoint"
	"github.com/xy-planning-network/waypoint/http/session"
	"github.com/xy-planning-network/waypoint/postgres"
	"gorm.io/gorm"
)

type DBTestSuite struct {
	suite.Suite

	db    *gorm.DB
	store *session.FuncStore
}

func TestRunSuite(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set")
	}

	suite.Run(t, new(DBTestSuite))
}

func (suite *DBTestSuite) SetupSuite() {
	var err error
	suite.db, err = postgres.Connect(&postgres.CxnConfig{URL: os.Getenv("DATABASE_URL"), IsTestDB: true}, waypoint.Testing)
	suite.Require().Nil(err)

	suite.store, err = session.NewFuncStore(postgres.SessionFuncs(suite.db))
	suite.Require().Nil(err)
}

func (suite *DBTestSuite) TearDownTest() {
	suite.Require().Nil(postgres.WipeDB(suite.db))
}

func (suite *DBTestSuite) TestMigrateUpIdempotent() {
	// Arrange
	var calls int
	m := postgres.Migration{Key: "test-once", Executor: func(*gorm.DB) error { calls++; return nil }}

	// Act
	suite.Require().Nil(postgres.MigrateUp(suite.db, []postgres.Migration{m}))
	suite.Require().Nil(postgres.MigrateUp(suite.db, []postgres.Migration{m}))

	// Assert
	suite.Require().Equal(1, calls)
}

func (suite *DBTestSuite) TestSessionFuncs() {
	// Arrange
	ctx := context.Background()
	id := "0b8a8f1c-4f0e-4a53-9c51-4a8f0c7a1d2e"
	now := time.Now().UTC().Truncate(time.Millisecond)
	b := &session.Body{
		IP:        "1.1.1.1",
		Hostname:  "example.com",
		UserAgent: "test/1.0",
		LastCheck: now,
		Data:      map[string]any{"user": "ada", "visits": 3},
	}

	// Act
	_, err := suite.store.Get(ctx, id)

	// Assert
	suite.Require().ErrorIs(err, session.ErrNotFound)

	// Act
	suite.Require().Nil(suite.store.Save(ctx, id, b))
	b.Data["visits"] = 4
	suite.Require().Nil(suite.store.Save(ctx, id, b))
	actual, err := suite.store.Get(ctx, id)

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal("ada", actual.Data["user"])
	suite.Require().Equal(float64(4), actual.Data["visits"])
	suite.Require().True(now.Equal(actual.LastCheck))

	// Act
	suite.Require().Nil(suite.store.Delete(ctx, id))
	_, err = suite.store.Get(ctx, id)

	// Assert
	suite.Require().ErrorIs(err, session.ErrNotFound)
}

func (suite *DBTestSuite) TestSessionFuncsSweep() {
	// Arrange
	ctx := context.Background()
	now := time.Now().UTC()
	stale := &session.Body{LastCheck: now.Add(-time.Hour), Data: map[string]any{}}
	fresh := &session.Body{LastCheck: now, Data: map[string]any{}}
	suite.Require().Nil(suite.store.Save(ctx, "0b8a8f1c-4f0e-4a53-9c51-4a8f0c7a1d2e", stale))
	suite.Require().Nil(suite.store.Save(ctx, "1c9b9f2d-5f1e-4b64-8d62-5b9f1d8b2e3f", fresh))

	// Act
	n, err := suite.store.Sweep(ctx, now.Add(-time.Minute))

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal(1, n)

	_, err = suite.store.Get(ctx, "1c9b9f2d-5f1e-4b64-8d62-5b9f1d8b2e3f")
	suite.Require().Nil(err)
}

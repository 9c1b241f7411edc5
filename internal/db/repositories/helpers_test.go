package repositories

import (
	"errors"
	"testing"

	"github.com/digital-evidence-archive/dea-backend/internal/db"
	"github.com/digital-evidence-archive/dea-backend/internal/db/dynamotest"
)

var errDB = errors.New("db error")

func newTable(t *testing.T) (*db.Table, *dynamotest.Fake) {
	t.Helper()
	fake := dynamotest.New()
	return db.NewTable(fake, "dea-test", "GSI1"), fake
}

package mongo

import (
	"context"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"
)

// Open connects to uri and returns a store that owns the connection. The
// database is taken from the uri path.
func Open(ctx context.Context, uri string) (*Store, error) {
	drv := mongodriver.New()
	if err := drv.Open(ctx, uri); err != nil {
		return nil, fmt.Errorf("tracktruck/mongo: open: %w", err)
	}
	db, err := grove.Open(drv)
	if err != nil {
		return nil, fmt.Errorf("tracktruck/mongo: open: %w", err)
	}
	return New(db), nil
}

package actions

import (
	"context"

	"github.com/pkg/errors"
	"github.com/relloyd/salespipe/aws/s3"
	"github.com/relloyd/salespipe/config"
	"github.com/relloyd/salespipe/logger"
	"github.com/relloyd/salespipe/rdbms"
	"github.com/relloyd/salespipe/rdbms/shared"
)

// Resources are the connections shared by every job of a run.
type Resources struct {
	Source    shared.Connector `errorTxt:"source connection" mandatory:"yes"`
	Warehouse shared.Connector `errorTxt:"warehouse connection" mandatory:"yes"`
	Bucket    s3.BasicClient   `errorTxt:"bucket client" mandatory:"yes"`
}

// ResourceOpener opens the Resources described by cfg.
type ResourceOpener func(ctx context.Context, log logger.Logger, cfg config.PipelineConfig) (*Resources, error)

// OpenResources connects to the source database, the warehouse and the bucket.
// Connections opened before an error are closed.
func OpenResources(ctx context.Context, log logger.Logger, cfg config.PipelineConfig) (*Resources, error) {
	var err error
	r := &Resources{}
	if r.Source, err = rdbms.OpenDbConnection(ctx, log, cfg.Connections.Source); err != nil {
		return nil, err
	}
	if r.Warehouse, err = rdbms.OpenDbConnection(ctx, log, cfg.Connections.Warehouse); err != nil {
		r.Close()
		return nil, err
	}
	if r.Bucket, err = s3.NewBasicClient(cfg.Bucket.Name, cfg.Bucket.Region, cfg.Bucket.Prefix); err != nil {
		r.Close()
		return nil, errors.Wrapf(err, "unable to create client for bucket %v", cfg.Bucket)
	}
	return r, nil
}

// Close closes both database connections.
func (r *Resources) Close() {
	for _, c := range []shared.Connector{r.Source, r.Warehouse} {
		if c != nil {
			c.Close()
		}
	}
}

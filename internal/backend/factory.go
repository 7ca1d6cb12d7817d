package backend

import (
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jaspertzx/shardvault/internal/config"
)

// Factory builds Adapters from configured BackendLocations, holding the
// shared SDK clients each adapter type needs so callers don't have to.
type Factory struct {
	s3Client  *s3.Client
	gcsClient *storage.Client
	quiet     bool
}

// NewFactory builds a Factory. gcsClient may be nil if no GCS backend
// locations are configured.
func NewFactory(awsConfig aws.Config, gcsClient *storage.Client, quiet bool) *Factory {
	return &Factory{
		s3Client:  s3.NewFromConfig(awsConfig),
		gcsClient: gcsClient,
		quiet:     quiet,
	}
}

// Build returns one Adapter per configured location, in order, so
// Adapters[i] is the BackendAdapter for LogicalLocation i.
func (f *Factory) Build(locations []config.BackendLocation) ([]Adapter, error) {
	adapters := make([]Adapter, len(locations))
	for i, loc := range locations {
		switch loc.Type {
		case "s3":
			adapters[i] = NewS3Adapter(f.s3Client, loc.Name, f.quiet)
		case "gcs":
			if f.gcsClient == nil {
				return nil, fmt.Errorf("backend location %d (%s) needs a GCS client but none is configured", i, loc.Name)
			}
			adapters[i] = NewGCSAdapter(f.gcsClient, loc.Name, f.quiet)
		default:
			return nil, fmt.Errorf("unsupported backend type %q for location %d", loc.Type, i)
		}
	}
	return adapters, nil
}

package suppression

import "context"

// Repository loads the project's suppression configuration. A nil Config
// with a nil error means the project has no usable suppression file.
type Repository interface {
	Load(ctx context.Context) (*Config, error)
}

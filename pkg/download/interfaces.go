//go:generate mockgen -destination=mocks/download.go -package=mocks . Requeryer
package download

import (
	"context"

	"github.com/shahbhuwan/gridflow/pkg/model"
)

// Requeryer refreshes a single descriptor's metadata from the federated
// search endpoints. The batch retry rounds use it to obtain a fresh,
// still-valid download URL instead of reusing one captured at initial
// query time.
type Requeryer interface {
	FetchSpecificFile(ctx context.Context, desc *model.FileDescriptor) (*model.FileDescriptor, error)
}

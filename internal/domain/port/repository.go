package port

import (
	"context"

	"github.com/framesift/framesift-service/internal/domain/entity"
	"github.com/google/uuid"
)

// JobRepository is the persistence boundary for capture jobs.
type JobRepository interface {
	Create(ctx context.Context, job *entity.CaptureJob) error
	Update(ctx context.Context, job *entity.CaptureJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.CaptureJob, error)
}

package review

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"studysync/models"
	courseModels "studysync/models/course"
	"studysync/services"
)

// AssignmentPolicy picks the admin who reviews a submitted course.
type AssignmentPolicy interface {
	Assign(ctx context.Context, tx *gorm.DB, course *courseModels.Course) (*models.User, error)
}

func adminQuery(tx *gorm.DB) *gorm.DB {
	return tx.Model(&models.User{}).Where("roles & ? <> 0", int(models.RoleAdmin))
}

// ExplicitAdmin assigns the named admin.
type ExplicitAdmin struct {
	AdminID uint
}

func (p ExplicitAdmin) Assign(ctx context.Context, tx *gorm.DB, _ *courseModels.Course) (*models.User, error) {
	var admin models.User
	if err := tx.WithContext(ctx).First(&admin, p.AdminID).Error; err != nil {
		return nil, services.Lookup(err, "reviewer")
	}
	if !admin.Roles.Has(models.RoleAdmin) {
		return nil, services.Invalid("user %d is not an admin", p.AdminID)
	}
	return &admin, nil
}

// LeastLoadedAdmin assigns the admin with the fewest pending reviews,
// breaking ties by lowest id.
type LeastLoadedAdmin struct{}

func (LeastLoadedAdmin) Assign(ctx context.Context, tx *gorm.DB, _ *courseModels.Course) (*models.User, error) {
	var admins []models.User
	if err := adminQuery(tx.WithContext(ctx)).Order("id asc").Find(&admins).Error; err != nil {
		return nil, errors.Wrap(err, "loading admins")
	}
	if len(admins) == 0 {
		return nil, errors.Wrap(services.ErrNotFound, "no admin available to review")
	}

	var loads []struct {
		ReviewerID uint
		Pending    int64
	}
	if err := tx.WithContext(ctx).Model(&courseModels.Course{}).
		Select("reviewer_id, COUNT(*) AS pending").
		Where("status = ? AND reviewer_id IS NOT NULL", courseModels.StatusPending).
		Group("reviewer_id").
		Scan(&loads).Error; err != nil {
		return nil, errors.Wrap(err, "counting pending reviews")
	}
	pending := make(map[uint]int64, len(loads))
	for _, l := range loads {
		pending[l.ReviewerID] = l.Pending
	}

	best := &admins[0]
	for i := 1; i < len(admins); i++ {
		if pending[admins[i].ID] < pending[best.ID] {
			best = &admins[i]
		}
	}
	return best, nil
}

// PolicyFor returns ExplicitAdmin when an admin id is named, LeastLoadedAdmin otherwise.
func PolicyFor(adminID uint) AssignmentPolicy {
	if adminID != 0 {
		return ExplicitAdmin{AdminID: adminID}
	}
	return LeastLoadedAdmin{}
}

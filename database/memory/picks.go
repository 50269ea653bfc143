package memory

import (
	"context"
	"fmt"
	"sort"

	"nfl-pickem/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PickRepository is the in-memory picks collection with the (user, game) unique key
type PickRepository struct{ s *Store }

func (r *PickRepository) Create(_ context.Context, pick *models.Pick) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.picks {
		if p.UserID == pick.UserID && p.GameID == pick.GameID {
			return fmt.Errorf("user %s game %s: %w", pick.UserID.Hex(), pick.GameID.Hex(), models.ErrDuplicatePick)
		}
	}
	if pick.ID.IsZero() {
		pick.ID = primitive.NewObjectID()
	}
	r.s.picks[pick.ID] = *pick
	return nil
}

func (r *PickRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.Pick, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.picks[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *PickRepository) FindByUserAndGame(_ context.Context, userID, gameID primitive.ObjectID) (*models.Pick, error) {
	found := r.filter(func(p *models.Pick) bool { return p.UserID == userID && p.GameID == gameID })
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r *PickRepository) FindByUserWeek(_ context.Context, userID primitive.ObjectID, season, week int) ([]*models.Pick, error) {
	return r.filter(func(p *models.Pick) bool {
		return p.UserID == userID && p.Season == season && p.Week == week
	}), nil
}

func (r *PickRepository) FindByUser(_ context.Context, userID primitive.ObjectID) ([]*models.Pick, error) {
	return r.filter(func(p *models.Pick) bool { return p.UserID == userID }), nil
}

func (r *PickRepository) FindByGame(_ context.Context, gameID primitive.ObjectID) ([]*models.Pick, error) {
	return r.filter(func(p *models.Pick) bool { return p.GameID == gameID }), nil
}

func (r *PickRepository) FindByWeek(_ context.Context, season, week int) ([]*models.Pick, error) {
	return r.filter(func(p *models.Pick) bool { return p.Season == season && p.Week == week }), nil
}

func (r *PickRepository) FindBySeason(_ context.Context, season int) ([]*models.Pick, error) {
	return r.filter(func(p *models.Pick) bool { return p.Season == season }), nil
}

func (r *PickRepository) UpdateSelection(_ context.Context, pick *models.Pick) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.picks[pick.ID]
	if !ok {
		return fmt.Errorf("pick %s: %w", pick.ID.Hex(), models.ErrNotFound)
	}
	p.SelectedTeam = pick.SelectedTeam
	p.TiebreakerTotal, p.TiebreakerAway, p.TiebreakerHome = pick.TiebreakerTotal, pick.TiebreakerAway, pick.TiebreakerHome
	p.LastModified = pick.LastModified
	p.EditSource = pick.EditSource
	if pick.EditedBy != nil {
		p.EditedBy, p.EditedAt, p.EditReason = pick.EditedBy, pick.EditedAt, pick.EditReason
	}
	r.s.picks[pick.ID] = p
	return nil
}

func (r *PickRepository) ApplyGrades(_ context.Context, grades []models.PickGrade) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, g := range grades {
		p, ok := r.s.picks[g.PickID]
		if !ok {
			continue
		}
		result := g.Result
		p.IsCorrect = models.BoolPtr(g.IsCorrect)
		p.Points = g.Points
		p.Result = &result
		r.s.picks[g.PickID] = p
	}
	return nil
}

func (r *PickRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.picks[id]; !ok {
		return fmt.Errorf("pick %s: %w", id.Hex(), models.ErrNotFound)
	}
	delete(r.s.picks, id)
	return nil
}

// filter returns matches in (season, week, submittedAt) order
func (r *PickRepository) filter(keep func(*models.Pick) bool) []*models.Pick {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Pick, 0)
	for _, p := range r.s.picks {
		p := p
		if keep(&p) {
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Season != b.Season {
			return a.Season < b.Season
		}
		if a.Week != b.Week {
			return a.Week < b.Week
		}
		if !a.SubmittedAt.Equal(b.SubmittedAt) {
			return a.SubmittedAt.Before(b.SubmittedAt)
		}
		return a.ID.Hex() < b.ID.Hex()
	})
	return out
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"nfl-pickem/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository is the in-memory users collection
type UserRepository struct{ s *Store }

func cloneUser(u models.User) *models.User {
	weekly := make(map[string]int, len(u.WeeklyPoints))
	for k, v := range u.WeeklyPoints {
		weekly[k] = v
	}
	u.WeeklyPoints = weekly
	return &u
}

func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return fmt.Errorf("email %s already registered: %w", user.Email, models.ErrInvalidInput)
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.WeeklyPoints == nil {
		user.WeeklyPoints = map[string]int{}
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = *cloneUser(*user)
	return nil
}

func (r *UserRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepository) FindAll(_ context.Context) ([]*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *UserRepository) UpdatePoints(_ context.Context, id primitive.ObjectID, totalPoints int, weeklyPoints map[string]int) error {
	return r.mutate(id, func(u *models.User) {
		u.TotalPoints = totalPoints
		u.WeeklyPoints = make(map[string]int, len(weeklyPoints))
		for k, v := range weeklyPoints {
			u.WeeklyPoints[k] = v
		}
		now := time.Now()
		u.LastUpdated = &now
	})
}

func (r *UserRepository) UpdateWeeklyStats(_ context.Context, id primitive.ObjectID, weeklyWins, bestWeekScore int) error {
	return r.mutate(id, func(u *models.User) {
		u.WeeklyWins, u.BestWeekScore = weeklyWins, bestWeekScore
		now := time.Now()
		u.LastUpdated = &now
	})
}

func (r *UserRepository) UpdateLastLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	return r.mutate(id, func(u *models.User) { u.LastLogin = &at })
}

func (r *UserRepository) mutate(id primitive.ObjectID, fn func(*models.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id.Hex(), models.ErrNotFound)
	}
	fn(&u)
	u.UpdatedAt = time.Now()
	r.s.users[id] = u
	return nil
}

// ActivityRepository is the in-memory audit log
type ActivityRepository struct{ s *Store }

func (r *ActivityRepository) Create(_ context.Context, activity *models.Activity) error {
	if err := activity.Validate(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if activity.ID.IsZero() {
		activity.ID = primitive.NewObjectID()
	}
	if activity.Timestamp.IsZero() {
		activity.Timestamp = time.Now()
	}
	r.s.activities = append(r.s.activities, *activity)
	return nil
}

// List returns matching activities newest first
func (r *ActivityRepository) List(_ context.Context, filter models.ActivityFilter) ([]*models.Activity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Activity, 0)
	for i := len(r.s.activities) - 1; i >= 0; i-- {
		a := r.s.activities[i]
		if filter.Matches(&a) {
			out = append(out, &a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// WeeklyResultRepository is the in-memory weekly_results collection
type WeeklyResultRepository struct{ s *Store }

func weeklyKey(season, week int) string {
	return models.WeekKey(season, week)
}

func (r *WeeklyResultRepository) Upsert(_ context.Context, result *models.WeeklyResult) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := weeklyKey(result.Season, result.Week)
	if existing, ok := r.s.weeklyResults[key]; ok {
		result.ID = existing.ID
	} else if result.ID.IsZero() {
		result.ID = primitive.NewObjectID()
	}
	r.s.weeklyResults[key] = *result
	return nil
}

func (r *WeeklyResultRepository) FindByWeek(_ context.Context, season, week int) (*models.WeeklyResult, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	wr, ok := r.s.weeklyResults[weeklyKey(season, week)]
	if !ok {
		return nil, nil
	}
	return &wr, nil
}

func (r *WeeklyResultRepository) FindAll(_ context.Context) ([]*models.WeeklyResult, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.WeeklyResult, 0, len(r.s.weeklyResults))
	for _, wr := range r.s.weeklyResults {
		wr := wr
		out = append(out, &wr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Season != out[j].Season {
			return out[i].Season < out[j].Season
		}
		return out[i].Week < out[j].Week
	})
	return out, nil
}

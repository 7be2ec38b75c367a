package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kalambet/fitai/internal/profile"
)

// Load reads a profile with its plans and full conversation history.
// Returns profile.ErrNotFound when id is unknown.
func (s *Store) Load(ctx context.Context, id string) (profile.Profile, error) {
	var p profile.Profile
	var activity, goal, diet string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, age, height_cm, weight_kg, activity_level, fitness_goal, dietary_preference, blood_group
		FROM profiles WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Age, &p.HeightCM, &p.WeightKG, &activity, &goal, &diet, &p.BloodGroup)
	if errors.Is(err, sql.ErrNoRows) {
		return profile.Profile{}, profile.ErrNotFound
	}
	if err != nil {
		return profile.Profile{}, fmt.Errorf("loading profile %s: %w", id, err)
	}
	p.ActivityLevel = profile.ActivityLevel(activity)
	p.FitnessGoal = profile.FitnessGoal(goal)
	p.DietaryPreference = profile.DietaryPreference(diet)

	if err := s.loadPlans(ctx, &p); err != nil {
		return profile.Profile{}, err
	}
	turns, err := s.Turns(ctx, id, 0)
	if err != nil {
		return profile.Profile{}, err
	}
	p.History = turns
	return p, nil
}

func (s *Store) loadPlans(ctx context.Context, p *profile.Profile) error {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, content, updated_at FROM plans WHERE profile_id = ?`, p.ID)
	if err != nil {
		return fmt.Errorf("loading plans: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, content, updatedAt string
		if err := rows.Scan(&kind, &content, &updatedAt); err != nil {
			return err
		}
		t, err := parseTime("plans.updated_at", updatedAt)
		if err != nil {
			return err
		}
		p.SetPlan(profile.PlanKind(kind), profile.Plan{Text: content, UpdatedAt: t})
	}
	return rows.Err()
}

// Turns returns the stored turns for a profile in order. When limit > 0
// only the most recent limit turns are returned, still oldest first.
func (s *Store) Turns(ctx context.Context, profileID string, limit int) ([]profile.Turn, error) {
	q := `SELECT created_at, user_text, assistant_text FROM conversation_turns WHERE profile_id = ? ORDER BY seq ASC`
	args := []any{profileID}
	if limit > 0 {
		q = `SELECT created_at, user_text, assistant_text FROM (
			SELECT seq, created_at, user_text, assistant_text FROM conversation_turns
			WHERE profile_id = ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("loading turns: %w", err)
	}
	defer rows.Close()

	var turns []profile.Turn
	for rows.Next() {
		var t profile.Turn
		var at string
		if err := rows.Scan(&at, &t.User, &t.Assistant); err != nil {
			return nil, err
		}
		if t.At, err = parseTime("conversation_turns.created_at", at); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Save writes the profile, its plans and any turns not yet stored in one
// transaction. Stored turns are never rewritten.
func (s *Store) Save(ctx context.Context, p profile.Profile) error {
	if p.ID == "" {
		return errors.New("saving profile: empty id")
	}
	return s.inTx(func(tx *sql.Tx) error {
		return saveProfile(ctx, tx, p)
	})
}

func saveProfile(ctx context.Context, tx *sql.Tx, p profile.Profile) error {
	now := formatTime(time.Now())
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO profiles (id, name, age, height_cm, weight_kg, activity_level, fitness_goal, dietary_preference, blood_group, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			age = excluded.age,
			height_cm = excluded.height_cm,
			weight_kg = excluded.weight_kg,
			activity_level = excluded.activity_level,
			fitness_goal = excluded.fitness_goal,
			dietary_preference = excluded.dietary_preference,
			blood_group = excluded.blood_group,
			updated_at = excluded.updated_at`,
		p.ID, p.Name, p.Age, p.HeightCM, p.WeightKG, string(p.ActivityLevel), string(p.FitnessGoal),
		string(p.DietaryPreference), p.BloodGroup, now, now,
	); err != nil {
		return fmt.Errorf("saving profile %s: %w", p.ID, err)
	}

	for _, kind := range []profile.PlanKind{profile.WorkoutPlan, profile.DietPlan} {
		plan := p.Plan(kind)
		if plan == nil {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO plans (profile_id, kind, content, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(profile_id, kind) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
			p.ID, string(kind), plan.Text, formatTime(plan.UpdatedAt),
		); err != nil {
			return fmt.Errorf("saving %s plan: %w", kind, err)
		}
	}

	var stored int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversation_turns WHERE profile_id = ?`, p.ID).Scan(&stored); err != nil {
		return fmt.Errorf("counting turns: %w", err)
	}
	if len(p.History) < stored {
		return fmt.Errorf("%w: have %d, stored %d", ErrHistoryConflict, len(p.History), stored)
	}
	for i, t := range p.History[stored:] {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO conversation_turns (profile_id, seq, created_at, user_text, assistant_text) VALUES (?, ?, ?, ?, ?)`,
			p.ID, stored+i, formatTime(t.At), t.User, t.Assistant,
		); err != nil {
			return fmt.Errorf("appending turn %d: %w", stored+i, err)
		}
	}
	return nil
}

// ListProfiles returns every stored profile, most recently updated first.
func (s *Store) ListProfiles(ctx context.Context) ([]ProfileRef, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, updated_at FROM profiles ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []ProfileRef
	for rows.Next() {
		var r ProfileRef
		var updatedAt string
		if err := rows.Scan(&r.ID, &r.Name, &updatedAt); err != nil {
			return nil, err
		}
		if r.UpdatedAt, err = parseTime("profiles.updated_at", updatedAt); err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

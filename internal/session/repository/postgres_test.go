package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"unipos-auth/internal/db/dbtest"
	"unipos-auth/internal/session/domain"
)

func seedUser(t *testing.T, conn *sqlx.DB) string {
	t.Helper()
	id := uuid.NewString()
	_, err := conn.Exec(`INSERT INTO users (id, username, email, password, national_id, first_name, last_name)
		VALUES ($1, $2, $3, 'hash', $4, 'F', 'L')`, id, "u"+id[:8], id[:8]+"@example.com", id[:8])
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

func TestPostgresRepository_Lifecycle(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewPostgresRepository(conn)
	ctx := context.Background()
	userID := seedUser(t, conn)
	now := time.Now().UTC()

	s := &domain.Session{UserID: userID, JTI: uuid.NewString(), ExpiresAt: now.Add(time.Hour)}
	err := repo.InTx(ctx, func(tx Tx) error {
		active, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		if !active {
			t.Error("seeded user should be active")
		}
		open, err := tx.HasOpenSession(ctx, userID)
		if err != nil {
			return err
		}
		if open {
			t.Error("fresh user should have no open session")
		}
		return tx.Create(ctx, s)
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}
	if s.ID == 0 || s.LoginAt.IsZero() {
		t.Fatalf("Create did not fill ID/LoginAt: %+v", s)
	}

	live, err := repo.GetLiveByJTI(ctx, s.JTI, now)
	if err != nil || live == nil || live.ID != s.ID {
		t.Fatalf("GetLiveByJTI = %+v, %v", live, err)
	}
	if err := repo.TouchLastSeen(ctx, s.ID, now); err != nil {
		t.Fatalf("TouchLastSeen: %v", err)
	}

	past, err := repo.GetLiveByJTI(ctx, s.JTI, now.Add(2*time.Hour))
	if err != nil || past != nil {
		t.Fatalf("GetLiveByJTI after expiry = %+v, %v; want nil", past, err)
	}

	changed, err := repo.RevokeByJTI(ctx, s.JTI, domain.ReasonLogout, now)
	if err != nil || !changed {
		t.Fatalf("RevokeByJTI = %v, %v", changed, err)
	}
	changed, err = repo.RevokeByJTI(ctx, s.JTI, domain.ReasonLogout, now)
	if err != nil || changed {
		t.Fatalf("second RevokeByJTI = %v, %v; want false, nil", changed, err)
	}
	if err := repo.TouchLastSeen(ctx, s.ID, now); err != nil {
		t.Fatalf("TouchLastSeen on revoked session should be a no-op, got %v", err)
	}
	if got, _ := repo.GetLiveByJTI(ctx, s.JTI, now); got != nil {
		t.Fatal("revoked session must not be live")
	}
}

func TestPostgresRepository_InTxRollsBack(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewPostgresRepository(conn)
	ctx := context.Background()
	userID := seedUser(t, conn)

	jti := uuid.NewString()
	boom := errors.New("signing failed")
	err := repo.InTx(ctx, func(tx Tx) error {
		if err := tx.Create(ctx, &domain.Session{UserID: userID, JTI: jti, ExpiresAt: time.Now().Add(time.Hour)}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx err = %v, want boom", err)
	}
	var n int
	if err := conn.Get(&n, `SELECT count(*) FROM sessions WHERE jti = $1`, jti); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("session row persisted after rollback (count=%d)", n)
	}
}

func createSession(t *testing.T, repo *PostgresRepository, userID string, expiresAt time.Time) {
	t.Helper()
	err := repo.InTx(context.Background(), func(tx Tx) error {
		return tx.Create(context.Background(), &domain.Session{UserID: userID, JTI: uuid.NewString(), ExpiresAt: expiresAt})
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func openCount(t *testing.T, conn *sqlx.DB, userID string) int {
	t.Helper()
	var n int
	if err := conn.Get(&n, `SELECT count(*) FROM sessions WHERE user_id = $1 AND revoked_at IS NULL`, userID); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestPostgresRepository_RevokeExpired(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewPostgresRepository(conn)
	ctx := context.Background()
	userID := seedUser(t, conn)
	now := time.Now().UTC()

	createSession(t, repo, userID, now.Add(-time.Hour))
	createSession(t, repo, userID, now.Add(time.Hour))

	var revoked int64
	err := repo.InTx(ctx, func(tx Tx) error {
		open, err := tx.HasOpenSession(ctx, userID)
		if err == nil && !open {
			t.Error("expired but unrevoked sessions count as open")
		}
		revoked, err = tx.RevokeExpired(ctx, userID, domain.ReasonExpired, now)
		return err
	})
	if err != nil || revoked != 1 {
		t.Fatalf("RevokeExpired = %d, %v; want 1", revoked, err)
	}
	if n := openCount(t, conn, userID); n != 1 {
		t.Fatalf("open sessions = %d, want the unexpired one", n)
	}
}

func TestPostgresRepository_CloseAccount(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewPostgresRepository(conn)
	ctx := context.Background()
	userID := seedUser(t, conn)

	createSession(t, repo, userID, time.Now().Add(-time.Hour))
	createSession(t, repo, userID, time.Now().Add(time.Hour))

	closed, n, err := repo.CloseAccount(ctx, userID, domain.ReasonAccountDeactivated, time.Now())
	if err != nil || !closed || n != 2 {
		t.Fatalf("CloseAccount = %v, %d, %v; want true, 2", closed, n, err)
	}
	closed, _, err = repo.CloseAccount(ctx, userID, domain.ReasonAccountDeactivated, time.Now())
	if err != nil || closed {
		t.Fatalf("second CloseAccount = %v, %v; want false, nil", closed, err)
	}
	err = repo.InTx(ctx, func(tx Tx) error {
		active, err := tx.LockUser(ctx, userID)
		if err == nil && active {
			t.Error("closed account still reported active")
		}
		return err
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}
}

func TestPostgresRepository_CloseAccountIsAtomic(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewPostgresRepository(conn)
	ctx := context.Background()
	userID := seedUser(t, conn)
	createSession(t, repo, userID, time.Now().Add(time.Hour))

	// revoked_reason is VARCHAR(100); the session update fails after the user update ran.
	_, _, err := repo.CloseAccount(ctx, userID, strings.Repeat("r", 101), time.Now())
	if err == nil {
		t.Fatal("CloseAccount should fail when the session update fails")
	}
	var active bool
	if err := conn.Get(&active, `SELECT is_active FROM users WHERE id = $1`, userID); err != nil {
		t.Fatalf("select: %v", err)
	}
	if !active || openCount(t, conn, userID) != 1 {
		t.Fatalf("partial close persisted: active=%v open=%d", active, openCount(t, conn, userID))
	}

	closed, n, err := repo.CloseAccount(ctx, userID, domain.ReasonAccountDeactivated, time.Now())
	if err != nil || !closed || n != 1 {
		t.Fatalf("retry CloseAccount = %v, %d, %v; want true, 1", closed, n, err)
	}
}

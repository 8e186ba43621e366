package community

import (
	"context"
	"strings"
	"testing"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newDryRunRepo builds a repository whose queries are rendered but never sent.
func newDryRunRepo(t *testing.T) (*Repo, *[]string) {
	t.Helper()

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "vayo:vayo@tcp(127.0.0.1:3306)/vayo?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
	})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}

	var statements []string
	err = gdb.Callback().Query().After("gorm:query").Register("test:capture", func(tx *gorm.DB) {
		statements = append(statements, tx.Statement.SQL.String())
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	return New(gdb, 500), &statements
}

func TestFilterByLocation_SQL(t *testing.T) {
	r, stmts := newDryRunRepo(t)

	got, err := r.FilterByLocation(context.Background(), "Austin", "America/Chicago")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("dry run should return no rows, got %d", len(got))
	}

	sql := (*stmts)[0]
	for _, want := range []string{
		"FROM `communities`",
		"city = ? AND timezone = ? AND is_active = ?",
		"ORDER BY member_count DESC,community_id ASC",
		"LIMIT",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("sql %q missing %q", sql, want)
		}
	}
}

func TestPopular_SQL(t *testing.T) {
	r, stmts := newDryRunRepo(t)

	if _, err := r.Popular(context.Background(), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sql := (*stmts)[0]
	if !strings.Contains(sql, "ORDER BY member_count DESC,recent_activity DESC,community_id ASC") {
		t.Errorf("unexpected ordering in %q", sql)
	}
	if strings.Contains(sql, "city") {
		t.Errorf("popular query must not filter by location: %q", sql)
	}
}

func TestListAll_SQL(t *testing.T) {
	r, stmts := newDryRunRepo(t)

	if _, err := r.ListAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sql := (*stmts)[0]; strings.Contains(sql, "LIMIT") {
		t.Errorf("list all must not be limited: %q", sql)
	}
}

func TestToDomain(t *testing.T) {
	row := communityRow{
		ID: "c1", Name: "Go Club", Category: "Tech", Description: "gophers",
		City: "Austin", Timezone: "America/Chicago", MemberCount: 42, RecentActivity: 7,
	}

	c := row.toDomain()
	if c.ID != "c1" || c.Name != "Go Club" || c.MemberCount != 42 || c.RecentActivity != 7 {
		t.Errorf("unexpected community %+v", c)
	}
	if c.Description != "gophers" || c.City != "Austin" {
		t.Errorf("store-only fields lost: %+v", c)
	}
}

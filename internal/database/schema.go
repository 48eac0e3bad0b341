package database

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"homestead/internal/config"
	"homestead/internal/middleware"
	"homestead/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaPlan lists the schema steps a configuration runs at startup.
type SchemaPlan struct {
	Mode    string
	RunSQL  bool
	RunAuto bool
}

// PlanSchema picks the schema steps for cfg.
//
//	sql     embedded migrations only
//	auto    AutoMigrate only; production and staging also need
//	        DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true
//	hybrid  migrations, plus AutoMigrate outside production and staging
func PlanSchema(cfg *config.Config) (SchemaPlan, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))
	if mode == "" {
		mode = SchemaModeHybrid
	}
	guarded := sharedEnv(cfg.Env)

	plan := SchemaPlan{Mode: mode}
	switch mode {
	case SchemaModeSQL:
		plan.RunSQL = true
	case SchemaModeAuto:
		if guarded && !cfg.DBAutoMigrateAllowDestructive {
			return plan, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		plan.RunAuto = true
	case SchemaModeHybrid:
		plan.RunSQL = true
		plan.RunAuto = !guarded
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}
	return plan, nil
}

// sharedEnv reports environments whose database holds real listings.
func sharedEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging", "stage":
		return true
	}
	return false
}

// ownerLinks are the users foreign keys declared ON DELETE RESTRICT. Account
// deletion relies on them to refuse users that still own listings or posts.
var ownerLinks = []struct {
	Table    string
	Relation string
}{
	{"properties", "Properties"},
	{"posts", "Posts"},
}

// AutoMigrate runs GORM AutoMigrate for users, properties and posts.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema runs the planned steps, then checks that the ownership
// constraints exist.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return err
	}

	if plan.RunSQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if plan.RunAuto {
		if plan.Mode == SchemaModeAuto && sharedEnv(cfg.Env) {
			middleware.Logger.WarnContext(ctx, "AutoMigrate enabled on a shared database", "env", cfg.Env)
		}
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}

	if missing := MissingOwnerLinks(db); len(missing) > 0 {
		return fmt.Errorf("schema lacks owner constraints on %s; deleting users would orphan their content", strings.Join(missing, ", "))
	}
	middleware.Logger.InfoContext(ctx, "schema ready", "mode", plan.Mode, "sql", plan.RunSQL, "auto", plan.RunAuto)
	return nil
}

// MissingOwnerLinks returns the dependent tables whose users constraint is
// absent. A table that does not exist yet counts as missing.
func MissingOwnerLinks(db *gorm.DB) []string {
	var missing []string
	m := db.Migrator()
	for _, link := range ownerLinks {
		if !m.HasTable(link.Table) || !m.HasConstraint(&models.User{}, link.Relation) {
			missing = append(missing, link.Table)
		}
	}
	return missing
}

// TableStatus describes one application table.
type TableStatus struct {
	Name   string
	Exists bool
	Rows   int64
	// OwnerGuarded is set for tables with a RESTRICT constraint to users.
	OwnerGuarded *bool
	// Pending names unapplied migrations that touch the table.
	Pending []string
}

// SchemaStatus is the report printed by `migrate status`.
type SchemaStatus struct {
	Plan              SchemaPlan
	Environment       string
	AppliedVersions   []int
	PendingMigrations []Migration
	Tables            []TableStatus
}

// GetSchemaStatus reports the plan for cfg, migration versions and the state
// of each application table.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return nil, err
	}
	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{Plan: plan, Environment: cfg.Env, AppliedVersions: applied}
	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}
	pendingByTable := map[string][]string{}
	for _, m := range GetMigrations() {
		if done[m.Version] {
			continue
		}
		status.PendingMigrations = append(status.PendingMigrations, m)
		for _, table := range m.Tables() {
			pendingByTable[table] = append(pendingByTable[table], m.String())
		}
	}

	migrator := db.WithContext(ctx).Migrator()
	guardedBy := map[string]string{}
	for _, link := range ownerLinks {
		guardedBy[link.Table] = link.Relation
	}
	for _, table := range appTables() {
		ts := TableStatus{Name: table, Exists: migrator.HasTable(table), Pending: pendingByTable[table]}
		if ts.Exists {
			if err := db.WithContext(ctx).Table(table).Count(&ts.Rows).Error; err != nil {
				return nil, fmt.Errorf("count %s: %w", table, err)
			}
		}
		if rel, ok := guardedBy[table]; ok {
			guarded := ts.Exists && migrator.HasConstraint(&models.User{}, rel)
			ts.OwnerGuarded = &guarded
		}
		status.Tables = append(status.Tables, ts)
	}
	return status, nil
}

// appTables returns the table names of PersistentModels in migration order.
func appTables() []string {
	cache := &sync.Map{}
	var out []string
	for _, model := range PersistentModels() {
		if s, err := schema.Parse(model, cache, schema.NamingStrategy{}); err == nil {
			out = append(out, s.Table)
		}
	}
	return out
}

var tableRefPattern = regexp.MustCompile(`(?i)\b(?:CREATE\s+TABLE(?:\s+IF\s+NOT\s+EXISTS)?|ALTER\s+TABLE(?:\s+IF\s+EXISTS)?|DROP\s+TABLE(?:\s+IF\s+EXISTS)?|\bON)\s+"?([a-z_][a-z0-9_]*)"?`)

// Tables lists the tables the up script creates, alters or indexes, in order
// of first mention.
func (m *Migration) Tables() []string {
	seen := map[string]bool{}
	var out []string
	for _, match := range tableRefPattern.FindAllStringSubmatch(m.UpScript, -1) {
		name := strings.ToLower(match[1])
		if name == "update" || name == "delete" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

package infra

import (
	"fmt"

	"cuentame/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the GORM connection backed by pgx, runs AutoMigrate for
// every model, then applies the idempotent SQL patches GORM cannot express
// (partial unique indexes, CHECK constraints).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates / updates all tables and applies schema patches.
// Integration tests call it directly against a throwaway database.
func RunMigrations(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(
		&model.Producto{},
		&model.CajaPredefinida{},
		&model.CajaPersonalizada{},
		&model.Usuario{},
		&model.Administrador{},
		&model.Direccion{},
		&model.Caja{},
		&model.OrdenCompra{},
		&model.OrdenLinea{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL statements. Each one checks for the
// object first so re-running on an already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// At most one default address per user.
		{"idx_direcciones_default", `
CREATE UNIQUE INDEX IF NOT EXISTS idx_direcciones_default
    ON direcciones (usuario_id) WHERE is_default`},
		// Each order line references exactly one catalog entity.
		{"chk_orden_lineas_ref", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_orden_lineas_ref') THEN
    ALTER TABLE orden_lineas ADD CONSTRAINT chk_orden_lineas_ref
      CHECK (num_nonnulls(caja_predefinida_id, caja_personalizada_id, producto_id) = 1);
  END IF;
END $$`},
		{"chk_orden_lineas_cantidad", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_orden_lineas_cantidad') THEN
    ALTER TABLE orden_lineas ADD CONSTRAINT chk_orden_lineas_cantidad CHECK (cantidad >= 1);
  END IF;
END $$`},
		{"chk_ordenes_estado", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_ordenes_estado') THEN
    ALTER TABLE ordenes_compra ADD CONSTRAINT chk_ordenes_estado
      CHECK (estado IN ('pendiente','pagada','enviado','entregada','cancelada'));
  END IF;
END $$`},
		{"chk_productos_precio", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_productos_precio') THEN
    ALTER TABLE productos ADD CONSTRAINT chk_productos_precio CHECK (precio >= 0 AND stock >= 0);
  END IF;
END $$`},
		// Listing a user's orders newest first.
		{"idx_ordenes_usuario_fecha", `
CREATE INDEX IF NOT EXISTS idx_ordenes_usuario_fecha
    ON ordenes_compra (usuario_id, created_at DESC)`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}

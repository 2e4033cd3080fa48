// cmd/seedadmin/main.go: crea o actualiza un administrador confirmado.
// Uso: go run ./cmd/seedadmin -correo admin@cuentame.ec -password secreto123
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"strings"

	"cuentame/internal/config"
	"cuentame/internal/infra"
	"cuentame/internal/model"
	"cuentame/internal/repository"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	correo := flag.String("correo", "admin@cuentame.ec", "correo del administrador")
	password := flag.String("password", "", "contraseña (mínimo 8 caracteres)")
	nombre := flag.String("nombre", "Administrador", "nombre visible")
	flag.Parse()

	if len(*password) < 8 {
		log.Fatal().Msg("la contraseña debe tener al menos 8 caracteres")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), 12)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt error")
	}

	ctx := context.Background()
	repo := repository.NewAdministradorRepository(db)
	mail := strings.ToLower(strings.TrimSpace(*correo))

	admin, err := repo.FindByCorreo(ctx, mail)
	switch {
	case err == nil:
		admin.Nombre = *nombre
		admin.PasswordHash = string(hash)
		admin.EmailConfirmado = true
		admin.TokenConfirmacion = nil
		err = repo.Update(ctx, admin)
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = repo.Create(ctx, &model.Administrador{
			Nombre:          *nombre,
			Correo:          mail,
			PasswordHash:    string(hash),
			EmailConfirmado: true,
		})
	}
	if err != nil {
		log.Fatal().Err(err).Msg("no se pudo guardar el administrador")
	}
	log.Info().Str("correo", mail).Msg("administrador creado/actualizado")
}

package handlers

import (
	"github.com/dmarchetti/scanventory/internal/redissvc"
	"github.com/dmarchetti/scanventory/internal/repo"
	"github.com/dmarchetti/scanventory/internal/scan"
)

var (
	productRepo  repo.ProductRepository
	categoryRepo repo.CategoryRepository
	movementRepo repo.MovementRepository
	metricsRepo  repo.MetricsRepository
	userRepo     repo.UserRepository
	cartRepo     repo.CartRepository

	scanManager *scan.Manager
	redisSvc    *redissvc.RedisService

	uploadDir = "uploads"
)

func SetProductRepo(r repo.ProductRepository) {
	productRepo = r
}

func SetCategoryRepo(r repo.CategoryRepository) {
	categoryRepo = r
}

func SetMovementRepo(r repo.MovementRepository) {
	movementRepo = r
}

func SetMetricsRepo(r repo.MetricsRepository) {
	metricsRepo = r
}

func SetUserRepo(r repo.UserRepository) {
	userRepo = r
}

func SetCartRepo(r repo.CartRepository) {
	cartRepo = r
}

func SetScanManager(m *scan.Manager) {
	scanManager = m
}

func SetRedisService(rs *redissvc.RedisService) {
	redisSvc = rs
}

func SetUploadDir(dir string) {
	if dir != "" {
		uploadDir = dir
	}
}

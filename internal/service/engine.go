package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Engine is satisfied by *engine.Runner.
type Engine interface {
	Test(ctx context.Context, configPath string) error
	Run(ctx context.Context, configPath string) error
}

// EngineService 用生成的配置调用外部引擎。
type EngineService interface {
	Test(ctx context.Context) error
	Run(ctx context.Context) error
}

type engineService struct {
	engine     Engine
	configPath string
}

// NewEngineService creates the service.
func NewEngineService(engine Engine, configPath string) EngineService {
	return &engineService{engine: engine, configPath: configPath}
}

func (s *engineService) Test(ctx context.Context) error {
	if err := s.ensureConfig(); err != nil {
		return err
	}
	return s.engine.Test(ctx, s.configPath)
}

func (s *engineService) Run(ctx context.Context) error {
	if err := s.ensureConfig(); err != nil {
		return err
	}
	return s.engine.Run(ctx, s.configPath)
}

func (s *engineService) ensureConfig() error {
	if _, err := os.Stat(s.configPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNoConfig, s.configPath)
		}
		return err
	}
	return nil
}

package app

import (
	"errors"

	"github.com/checkout-next/internal/config"
	"github.com/checkout-next/internal/provider"
	"github.com/checkout-next/internal/router"
	"github.com/checkout-next/internal/worker"
)

// BuildRunner 按启动模式组装服务
// 外部连接（运费、队列、Redis）作为第一个服务注册，停止时最后释放
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	opts := Options{Config: cfg, Mode: mode}
	parsed, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}
	opts.Mode = parsed

	container := provider.NewContainer(cfg)
	services := []Service{NewResourceService("resources", container.Close)}

	if opts.serves(ModeAPI) {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(cfg.Server, engine))
	}

	if opts.serves(ModeWorker) {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(&cfg.Queue, consumer)
		if err != nil {
			_ = container.Close()
			return nil, err
		}
		services = append(services, workerService)
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start",
		"addr", opts.Config.Server.Addr(),
		"mode", opts.Mode,
		"shutdown_timeout", opts.ShutdownTimeout.String(),
	)
	return RunWithOptions(runner, opts)
}

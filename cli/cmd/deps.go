package cmd

import (
	"github.com/crmarques/declarm/cloud"
	"github.com/crmarques/declarm/config"
	"github.com/crmarques/declarm/internal/providers/cloud/arm"
	"github.com/crmarques/declarm/reconciler"
)

// Dependencies collects the factories commands build their collaborators
// from. Tests swap them for fakes.
type Dependencies struct {
	LoadConfig    func(path string) (config.Config, error)
	NewClient     func(cfg config.Cloud) (cloud.ResourceClient, error)
	NewReconciler func(client cloud.ResourceClient) reconciler.Reconciler
}

func defaultDependencies() Dependencies {
	return Dependencies{
		LoadConfig: config.Load,
		NewClient: func(cfg config.Cloud) (cloud.ResourceClient, error) {
			return arm.NewGateway(cfg)
		},
		NewReconciler: func(client cloud.ResourceClient) reconciler.Reconciler {
			return &reconciler.DefaultReconciler{Cloud: client}
		},
	}
}

func (d Dependencies) client() (cloud.ResourceClient, error) {
	cfg, err := d.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return d.NewClient(cfg.Cloud)
}

func (d Dependencies) reconciler() (reconciler.Reconciler, error) {
	client, err := d.client()
	if err != nil {
		return nil, err
	}
	return d.NewReconciler(client), nil
}

package main

import (
	"flag"

	"github.com/golang/glog"
	"github.com/spf13/viper"

	"github.com/dspxtv/prebid-dspx/config"
	"github.com/dspxtv/prebid-dspx/router"
	"github.com/dspxtv/prebid-dspx/server"
	"github.com/dspxtv/prebid-dspx/version"
)

func main() {
	flag.Parse() // required for glog flags and testing package flags

	cfg, err := loadConfig()
	if err != nil {
		glog.Exitf("Configuration could not be loaded or did not pass validation: %v", err)
	}

	err = serve(version.Rev, cfg)
	if err != nil {
		glog.Exitf("prebid-dspx failed: %v", err)
	}
}

const configFileName = "pbs"

func loadConfig() (*config.Configuration, error) {
	v := viper.New()
	config.SetupViper(v, configFileName)
	return config.New(v)
}

func serve(revision string, cfg *config.Configuration) error {
	r, err := router.New(cfg)
	if err != nil {
		return err
	}

	glog.Infof("prebid-dspx %s (%s) starting", version.OrUnknown(), revision)

	corsRouter := router.SupportCORS(r)
	return server.Listen(cfg, router.NoCache{Handler: corsRouter}, router.Admin(revision, r.MetricsEngine), r.MetricsEngine)
}

package workload

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/go-logr/logr"

	"github.com/perfkit/schedtune-validator/internal/cgroup"
)

const (
	defaultRTAppPath = "/usr/bin/rt-app"
	profileFileName  = "profile.json"
	logFileName      = "rt-app.log"
)

// Func definition for unit testing
var runCommandFunc = func(cmd *exec.Cmd) error { return cmd.Run() }

// RTAppOpts configures the rt-app runner.
type RTAppOpts struct {
	// BinaryPath is the rt-app executable; defaults to /usr/bin/rt-app.
	BinaryPath string
	// Launcher is prepended to the command line to place the workload in
	// the tuning group, e.g. {"cgexec", "-g", "schedtune:<name>"}. When
	// empty a cgexec launcher is derived from the group descriptor.
	Launcher []string
}

type rtAppRunnerImpl struct {
	opts   RTAppOpts
	logger logr.Logger
}

// NewRTAppRunner returns a Runner that translates the profile into an rt-app
// JSON configuration and executes it synchronously.
func NewRTAppRunner(opts RTAppOpts, logger logr.Logger) Runner {
	if opts.BinaryPath == "" {
		opts.BinaryPath = defaultRTAppPath
	}

	return &rtAppRunnerImpl{
		opts:   opts,
		logger: logger,
	}
}

// rt-app JSON configuration shapes
type rtAppConf struct {
	Global rtAppGlobal          `json:"global"`
	Tasks  map[string]rtAppTask `json:"tasks"`
}

type rtAppGlobal struct {
	Duration      int    `json:"duration"`
	DefaultPolicy string `json:"default_policy"`
	LogDir        string `json:"logdir"`
}

type rtAppTask struct {
	Policy string                `json:"policy"`
	CPUs   []uint                `json:"cpus"`
	Phases map[string]rtAppPhase `json:"phases"`
}

type rtAppPhase struct {
	Loop  int        `json:"loop"`
	Run   int        `json:"run"`
	Timer rtAppTimer `json:"timer"`
}

type rtAppTimer struct {
	Ref    string `json:"ref"`
	Period int    `json:"period"`
}

func (r *rtAppRunnerImpl) Run(ctx context.Context, profile PeriodicProfile, group cgroup.Config, outDir string) error {
	confPath, err := r.writeConf(profile, outDir)
	if err != nil {
		return err
	}

	launcher := r.opts.Launcher
	if len(launcher) == 0 {
		launcher = []string{"cgexec", "-g", fmt.Sprintf("%s:%s", group.Controller, group.Name)}
	}

	argv := append(append([]string{}, launcher...), r.opts.BinaryPath, confPath)

	logFile, err := os.Create(filepath.Join(outDir, logFileName))
	if err != nil {
		return fmt.Errorf("failed to create workload log: %w", err)
	}
	defer logFile.Close()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	r.logger.V(5).Info("running workload", "argv", argv, "outDir", outDir)
	if err := runCommandFunc(cmd); err != nil {
		return fmt.Errorf("workload execution failed: %w", err)
	}

	return nil
}

// writeConf renders the profile as an rt-app JSON configuration in outDir
// and returns its path.
func (r *rtAppRunnerImpl) writeConf(profile PeriodicProfile, outDir string) (string, error) {
	periodUsec := int(profile.Period.Microseconds())
	if periodUsec <= 0 {
		return "", fmt.Errorf("profile %q has non-positive period %v", profile.Name, profile.Period)
	}

	conf := rtAppConf{
		Global: rtAppGlobal{
			Duration:      int(profile.Duration.Seconds()),
			DefaultPolicy: string(PolicyOther),
			LogDir:        outDir,
		},
		Tasks: map[string]rtAppTask{
			profile.Name: {
				Policy: string(profile.Policy),
				CPUs:   profile.CPUs,
				Phases: map[string]rtAppPhase{
					"p000000": {
						Loop: int(profile.Duration / profile.Period),
						Run:  periodUsec * profile.DutyCyclePct / 100,
						Timer: rtAppTimer{
							Ref:    profile.Name,
							Period: periodUsec,
						},
					},
				},
			},
		},
	}

	data, err := json.MarshalIndent(conf, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode rt-app configuration: %w", err)
	}

	confPath := filepath.Join(outDir, profileFileName)
	if err := os.WriteFile(confPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write rt-app configuration: %w", err)
	}

	return confPath, nil
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/flanksource/clicky"
	"github.com/flanksource/commons/logger"
	"github.com/loonghao/vx/pkg/cache"
	"github.com/loonghao/vx/pkg/config"
	"github.com/loonghao/vx/pkg/installer"
	"github.com/loonghao/vx/pkg/platform"
	"github.com/loonghao/vx/pkg/types"
	"github.com/spf13/cobra"

	// Register all package managers via init functions
	_ "github.com/loonghao/vx/pkg/manager/apache"
	_ "github.com/loonghao/vx/pkg/manager/direct"
	_ "github.com/loonghao/vx/pkg/manager/github"
	_ "github.com/loonghao/vx/pkg/manager/gitlab"
	_ "github.com/loonghao/vx/pkg/manager/golang"
	_ "github.com/loonghao/vx/pkg/manager/maven"
	_ "github.com/loonghao/vx/pkg/manager/url"
)

var (
	binDir         string
	appDir         string
	tmpDir         string
	cacheDir       string
	force          bool
	skipChecksum   bool
	strictChecksum bool
	verbose        bool
	debug          bool
	osOverride     string
	archOverride   string
	configFile     string
	depsConfig     *types.DepsConfig
	versionInfo    VersionInfo
	showVersion    bool
	timeout        time.Duration
	offline        bool
	refresh        bool
	useSystemPath  bool
)

// versionCacheMode translates the --offline/--refresh flags into a
// pkg/cache.Mode for version discovery; --offline wins if both are set.
func versionCacheMode() cache.Mode {
	switch {
	case offline:
		return cache.ModeOffline
	case refresh:
		return cache.ModeRefresh
	default:
		return cache.ModeNormal
	}
}

// commonInstallOptions builds the InstallOption set shared by every
// subcommand that constructs an *installer.Installer from global flags.
func commonInstallOptions() []installer.InstallOption {
	return []installer.InstallOption{
		installer.WithBinDir(binDir),
		installer.WithAppDir(appDir),
		installer.WithTmpDir(tmpDir),
		installer.WithForce(force),
		installer.WithSkipChecksum(skipChecksum),
		installer.WithStrictChecksum(strictChecksum),
		installer.WithDebug(debug),
		installer.WithOS(osOverride, archOverride),
		installer.WithVersionCacheMode(versionCacheMode()),
	}
}

type VersionInfo struct {
	Version string
	Commit  string
	Date    string
	Dirty   string
}

func SetVersion(version, commit, date, dirty string) {
	versionInfo = VersionInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
		Dirty:   dirty,
	}
}

func GetVersionInfo() VersionInfo {
	return versionInfo
}

var rootCmd = &cobra.Command{
	Use:   "vx",
	Short: "A universal, project-aware executor and installer for developer toolchains",
	Long: `vx is a single front-door for language runtimes, package managers and
build tools. It resolves the version a project asks for, installs it into a
content-addressed store if it's missing, and transparently forwards execution
to it - replacing per-language version managers like nvm, pyenv, goenv and
rustup. Run "vx node" or "vx python" directly, or use the subcommands below to
manage the store.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		// Handle --version flag when no subcommand is specified
		if showVersion {
			printVersion()
			return
		}
		// Show help if no version flag and no subcommand
		_ = cmd.Help()
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Handle --version flag for subcommands
		if showVersion {
			printVersion()
			os.Exit(0)
		}

		// Apply clicky flags after command line parsing
		clicky.Flags.UseFlags()

		if verbose {
			logger.StandardLogger().SetMinLogLevel(logger.Debug)
		}

		// Set global platform overrides from CLI flags
		platform.SetGlobalOverrides(osOverride, archOverride)

		// Initialize global depsConfig
		var err error
		depsConfig, err = config.LoadMergedConfig(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		logger.Debugf("Using BIN_DIR: %s (%s/%s)", binDir, osOverride, archOverride)
	},
}

func printVersion() {
	dirtyStr := ""
	if versionInfo.Dirty == "true" {
		dirtyStr = " (dirty)"
	}
	fmt.Printf("vx version %s\n", versionInfo.Version)
	fmt.Printf("  commit: %s%s\n", versionInfo.Commit, dirtyStr)
	fmt.Printf("  built: %s\n", versionInfo.Date)
	fmt.Printf("  platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// Execute runs the root command. A first argument that doesn't name a
// known subcommand or flag is treated as a runtime invocation - "vx
// node server.js" becomes "vx exec node server.js" - so vx can act as
// a transparent front-door instead of requiring a dedicated verb.
func Execute() error {
	rewriteArgsForTransparentExec(rootCmd, os.Args[1:])
	return rootCmd.Execute()
}

func rewriteArgsForTransparentExec(root *cobra.Command, args []string) {
	if len(args) == 0 {
		return
	}
	first := args[0]
	if len(first) > 0 && first[0] == '-' {
		return
	}
	if first == "help" || first == "completion" {
		return
	}
	for _, c := range root.Commands() {
		if c.Name() == first || c.HasAlias(first) {
			return
		}
	}
	root.SetArgs(append([]string{"exec"}, args...))
}

// GetDepsConfig returns the global depsConfig
func GetDepsConfig() *types.DepsConfig {
	return depsConfig
}

func init() {

	clicky.BindAllFlags(rootCmd.PersistentFlags(), "tasks", "!format")
	home := "/usr/local"
	if os.Geteuid() != 0 {
		if userHome, err := os.UserHomeDir(); err == nil {
			home = filepath.Join(userHome, ".local")
		}
	}

	defaultAppDir := filepath.Join(home, "opt")
	defaultBinDir := filepath.Join(home, "bin")
	if d := os.Getenv("APP_DIR"); d != "" {
		defaultAppDir = d
	}
	if d := os.Getenv("BIN_DIR"); d != "" {
		defaultBinDir = d
	}

	rootCmd.PersistentFlags().BoolVar(&showVersion, "version", false, "Show version information")
	rootCmd.PersistentFlags().StringVar(&binDir, "bin-dir", defaultBinDir, "Directory to install binaries")
	rootCmd.PersistentFlags().StringVar(&appDir, "app-dir", defaultAppDir, "Directory to install directory-mode packages")
	rootCmd.PersistentFlags().StringVar(&tmpDir, "tmp-dir", os.TempDir(), "Directory for temporary files (will not be cleaned up on exit)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "Directory for download cache (not passed to the installer; downloads are not cached)")
	rootCmd.PersistentFlags().BoolVar(&force, "force", false, "Force reinstall even if binary exists")
	rootCmd.PersistentFlags().BoolVar(&skipChecksum, "skip-checksum", false, "Skip checksum verification")
	rootCmd.PersistentFlags().BoolVar(&strictChecksum, "strict-checksum", true, "Fail installation when checksum verification fails (default: true)")
	rootCmd.PersistentFlags().StringVar(&osOverride, "os", runtime.GOOS, "Target OS (linux, darwin, windows)")
	rootCmd.PersistentFlags().StringVar(&archOverride, "arch", runtime.GOARCH, "Target architecture (amd64, arm64, etc.)")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to vx.yaml config file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Timeout for a tool run through vx exec or vx <tool> (downloads and installs are not bounded by it)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose (debug-level) logging")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Keep downloaded and extracted files for debugging")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Never hit the network; serve whatever is cached")
	rootCmd.PersistentFlags().BoolVar(&refresh, "refresh", false, "Bypass the version cache and re-fetch from upstream")
	rootCmd.PersistentFlags().BoolVar(&useSystemPath, "use-system-path", false, "Prefer an already-installed system binary over the vx store")
}

// CLI for running the infinite jukebox engine: serving its HTTP API,
// driving playback from the terminal, and watching an analysis sidecar
// for changes.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/nzoschke/jukebox/internal/audiosrc"
	"github.com/nzoschke/jukebox/internal/config"
	"github.com/nzoschke/jukebox/internal/httpserver"
	"github.com/nzoschke/jukebox/internal/jukebox"
	"github.com/nzoschke/jukebox/internal/tui"
)

// playTickInterval matches the driver's beat-sync polling cadence used
// by the HTTP server's own tick loop.
const playTickInterval = 20 * time.Millisecond

var rootCmd = &cobra.Command{
	Use:   "jukebox",
	Short: "Infinite jukebox playback engine",
}

var serveCmd = &cobra.Command{
	Use:   "serve <analysis.json>",
	Short: "Start the HTTP API and debug visualization server on :8080",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(args[0])
	},
}

var playCmd = &cobra.Command{
	Use:   "play <audio-file> <analysis.json>",
	Short: "Play an audio file through the jukebox engine in the terminal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(args[0], args[1])
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <analysis.json>",
	Short: "Serve the HTTP API and reload the analysis whenever the sidecar file changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(args[0])
	},
}

var configWrite bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved EngineConfig and its source path",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfig(configWrite)
	},
}

func init() {
	configCmd.Flags().BoolVar(&configWrite, "write", false, "write the resolved config back to its source path")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadEngineConfig resolves the on-disk config, falling back to defaults
// (with a warning) on any read or parse failure rather than refusing to
// start playback over a bad config file.
func loadEngineConfig() (jukebox.EngineConfig, error) {
	path := config.GetConfigPath()
	fileCfg, err := config.LoadConfig(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err, "(falling back to defaults)")
	}
	return fileCfg.ToEngineConfig(), nil
}

func loadAnalysisFile(path string) (jukebox.RawAnalysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return jukebox.RawAnalysis{}, fmt.Errorf("read analysis file: %w", err)
	}
	var raw jukebox.RawAnalysis
	if err := json.Unmarshal(data, &raw); err != nil {
		return jukebox.RawAnalysis{}, fmt.Errorf("parse analysis file: %w", err)
	}
	return raw, nil
}

func runServe(analysisPath string) error {
	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}

	raw, err := loadAnalysisFile(analysisPath)
	if err != nil {
		return err
	}

	engine := jukebox.NewEngine(audiosrc.NewVirtualPlayer(), jukebox.SystemSource(), cfg)
	engine.LoadAnalysis(raw)

	srv := httpserver.New(engine, "")
	fmt.Println("serving on :8080, debug visualization at /debug")
	return srv.Start(":8080")
}

func runPlay(audioPath, analysisPath string) error {
	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}

	raw, err := loadAnalysisFile(analysisPath)
	if err != nil {
		return err
	}

	if raw.Track == nil {
		if title, artist, err := audiosrc.ReadTags(audioPath); err == nil && (title != "" || artist != "") {
			raw.Track = &jukebox.RawTrack{Title: title, Artist: artist}
		}
	}

	player := audiosrc.NewVirtualPlayer()
	if err := player.LoadFile(audioPath, nil); err != nil {
		return fmt.Errorf("load audio: %w", err)
	}

	engine := jukebox.NewEngine(player, jukebox.SystemSource(), cfg)
	engine.LoadAnalysis(raw)
	if err := engine.StartJukebox(); err != nil {
		return err
	}
	engine.Play()

	go tickForever(engine)

	return tui.Run(engine)
}

func runWatch(analysisPath string) error {
	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}

	raw, err := loadAnalysisFile(analysisPath)
	if err != nil {
		return err
	}

	engine := jukebox.NewEngine(audiosrc.NewVirtualPlayer(), jukebox.SystemSource(), cfg)
	engine.LoadAnalysis(raw)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(analysisPath); err != nil {
		return fmt.Errorf("watch analysis file: %w", err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				raw, err := loadAnalysisFile(analysisPath)
				if err != nil {
					fmt.Fprintln(os.Stderr, "reload failed:", err)
					continue
				}
				engine.LoadAnalysis(raw)
				fmt.Println("reloaded", analysisPath)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				fmt.Fprintln(os.Stderr, "watch error:", err)
			}
		}
	}()

	srv := httpserver.New(engine, "")
	fmt.Println("serving on :8080, watching", analysisPath, "for changes")
	return srv.Start(":8080")
}

func runConfig(write bool) error {
	path := config.GetConfigPath()
	fileCfg, err := config.LoadConfig(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err, "(falling back to defaults)")
	}

	if write {
		if err := config.SaveConfig(path, fileCfg); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Println("wrote config to", path)
	}

	data, err := json.MarshalIndent(fileCfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println("config path:", path)
	fmt.Println(string(data))
	return nil
}

func tickForever(engine *jukebox.Engine) {
	ticker := time.NewTicker(playTickInterval)
	defer ticker.Stop()
	for range ticker.C {
		engine.Tick()
	}
}

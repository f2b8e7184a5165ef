package main

import (
	"fmt"
	"os"

	"lyricfetch/internal/config"
	"lyricfetch/internal/metadata"
)

// options holds what the command line asked for beyond the config file.
type options struct {
	title     string
	artist    string
	duration  string
	file      string
	print     bool
	embed     bool
	embedDir  string
	overwrite bool
}

// parseArgs parses command-line arguments and loads configuration.
// Priority: CLI flags > environment > config file > defaults
func parseArgs(args []string) (config.Config, options, string, error) {
	var opts options

	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			printUsage()
			os.Exit(0)
		}
		if arg == "--init-config" {
			return config.Config{}, opts, "", initConfigFile()
		}
	}

	var configPath string
	for i := 0; i < len(args); i++ {
		if args[i] == "--config" || args[i] == "-c" {
			if i+1 >= len(args) {
				return config.Config{}, opts, "", fmt.Errorf("--config requires a path argument")
			}
			configPath = args[i+1]
			break
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, opts, "", fmt.Errorf("failed to load config: %w", err)
	}
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	value := func(i int, name string) (string, error) {
		if i+1 >= len(args) {
			return "", fmt.Errorf("%s requires a value", name)
		}
		return args[i+1], nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "--verbose", "-v":
			cfg.Verbose = true

		case "--print", "-p":
			opts.print = true

		case "--embed":
			opts.embed = true

		case "--overwrite":
			opts.overwrite = true

		case "--embed-dir":
			v, err := value(i, arg)
			if err != nil {
				return config.Config{}, opts, "", err
			}
			i++
			opts.embedDir = v

		case "--parallel", "-j":
			v, err := value(i, arg)
			if err != nil {
				return config.Config{}, opts, "", err
			}
			i++
			var jobs int
			if _, err := fmt.Sscanf(v, "%d", &jobs); err != nil {
				return config.Config{}, opts, "", fmt.Errorf("invalid parallel jobs value: %s", v)
			}
			cfg.ParallelJobs = jobs

		case "--title", "-t", "--artist", "-a", "--duration", "-d",
			"--file", "-f", "--endpoint", "-e":
			v, err := value(i, arg)
			if err != nil {
				return config.Config{}, opts, "", err
			}
			i++
			switch arg {
			case "--title", "-t":
				opts.title = v
			case "--artist", "-a":
				opts.artist = v
			case "--duration", "-d":
				opts.duration = v
			case "--file", "-f":
				opts.file = v
			case "--endpoint", "-e":
				cfg.Endpoint = v
			}

		case "--config", "-c":
			i++

		default:
			if len(arg) > 0 && arg[0] == '-' {
				return config.Config{}, opts, "", fmt.Errorf("unknown flag: %s", arg)
			}
			if opts.title != "" {
				return config.Config{}, opts, "", fmt.Errorf("unexpected argument: %s", arg)
			}
			opts.title = arg
		}
	}

	if opts.embed {
		if opts.file == "" {
			return config.Config{}, opts, "", fmt.Errorf("--embed requires --file")
		}
		opts.print = true
	}

	if opts.file != "" {
		if err := prefill(&opts); err != nil {
			return config.Config{}, opts, "", err
		}
	}

	return cfg, opts, configPath, nil
}

// prefill fills the fields the user left empty from the audio file's tags.
func prefill(opts *options) error {
	track, err := metadata.ReadTrack(opts.file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", opts.file, err)
	}
	if opts.title == "" {
		opts.title = track.Title
	}
	if opts.artist == "" {
		opts.artist = track.Artist
	}
	if opts.duration == "" {
		opts.duration = track.DurationField()
	}
	return nil
}

// initConfigFile creates a new config file with default values
func initConfigFile() error {
	path := config.GetDefaultConfigPath()

	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config file already exists at: %s\n", path)
		fmt.Println("Delete it first if you want to recreate it.")
		os.Exit(0)
	}

	cfg := config.DefaultConfig()

	if err := config.SaveConfigFile(cfg, path); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	fmt.Printf("Created default config file at: %s\n", path)
	fmt.Println("\nYou can now edit this file to customize your settings.")
	fmt.Println("Available options:")
	fmt.Println("  endpoint: base URL of the lyrics service")
	fmt.Println("  request_timeout_seconds: how long one lookup may take")
	fmt.Println("  copy_revert_ms: how long the copy control shows \"Copied\"")
	fmt.Println("  parallel_jobs: 1-10 (lookups at once for --embed-dir)")
	fmt.Println("  verbose: true/false (enable detailed logging)")

	os.Exit(0)
	return nil
}

// printUsage displays the help message
func printUsage() {
	fmt.Println("lyricfetch - Look up song lyrics")
	fmt.Println()
	fmt.Println("Usage: lyricfetch [options] [title]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -t, --title <title>        Song title")
	fmt.Println("  -a, --artist <artist>      Artist name")
	fmt.Println("  -d, --duration <seconds>   Track length in seconds")
	fmt.Println("  -f, --file <path>          Fill empty fields from an audio file's tags")
	fmt.Println("  -e, --endpoint <url>       Lyrics service base URL")
	fmt.Println("  -p, --print                Fetch once and print, no interface")
	fmt.Println("      --embed                Write fetched lyrics into --file (implies --print)")
	fmt.Println("      --embed-dir <dir>      Fetch and embed lyrics for every audio file in dir")
	fmt.Println("  -j, --parallel <n>         Parallel lookups for --embed-dir (1-10, default: 4)")
	fmt.Println("      --overwrite            Replace lyrics already present in files")
	fmt.Println("  -v, --verbose              Show detailed output")
	fmt.Println("  -c, --config <path>        Path to config file")
	fmt.Println("  -h, --help                 Show this help message")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println("  --init-config              Create a default config file")
	fmt.Println()
	fmt.Println("Config file locations (checked in order):")
	fmt.Println("  ./lyricfetch.yaml")
	fmt.Println("  ~/.config/lyricfetch/config.yaml")
	fmt.Println("  ~/.lyricfetch.yaml")
	fmt.Println()
	fmt.Println("Logging:")
	fmt.Println("  Interactive mode: detailed logs saved to ~/.local/share/lyricfetch/logs/")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Open the interface with the fields prefilled")
	fmt.Println("  lyricfetch -t Imagine -a \"John Lennon\" -d 183")
	fmt.Println()
	fmt.Println("  # Print lyrics for a file and store them in its tags")
	fmt.Println("  lyricfetch -f song.mp3 --embed")
	fmt.Println()
	fmt.Println("  # Fill in missing lyrics for a whole library, 8 at a time")
	fmt.Println("  lyricfetch --embed-dir ~/Music -j 8")
}

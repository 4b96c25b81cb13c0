package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/deepvoice/deepvoice-go/pkg/deepvoice"
)

var (
	verbose     bool
	backendURL  string
	deviceID    int
	timeoutSecs float64
	uiAddr      string
	autoSilence float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "deepvoice",
		Short: "DeepVoice voice client CLI",
		Long:  "A command-line client for the DeepVoice conversational backend",
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "Backend base URL")
	rootCmd.PersistentFlags().IntVar(&deviceID, "device", -1, "Input device ID")
	rootCmd.PersistentFlags().Float64Var(&timeoutSecs, "timeout", 0, "Backend request timeout in seconds")

	rootCmd.AddCommand(talkCmd())
	rootCmd.AddCommand(devicesCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		deepvoice.GetGlobalLogger().WithError(err).Fatal("CLI execution failed")
	}
}

func buildConfig() *deepvoice.ClientConfig {
	config := deepvoice.NewClientConfig()
	if backendURL != "" {
		config.BackendURL = backendURL
	}
	if timeoutSecs > 0 {
		config.RequestTimeout = timeoutSecs
	}
	if deviceID >= 0 {
		config.AudioDeviceID = &deviceID
	}
	if uiAddr != "" {
		config.UIListenAddr = uiAddr
	}
	if verbose {
		config.DebugLevel = "DEBUG"
		config.DebugHTTP = true
	}
	return config
}

func talkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "talk",
		Short: "Run an interactive voice conversation",
		Long: "Start a session against the backend, then press Enter to begin and end " +
			"each spoken turn. Type q to stop the conversation.",
		Run: func(cmd *cobra.Command, args []string) {
			config := buildConfig()
			if issues := config.Validate(); len(issues) > 0 {
				for _, issue := range issues {
					fmt.Printf("Config issue: %s\n", issue)
				}
				os.Exit(1)
			}

			audioConfig := deepvoice.NewAudioConfig()

			registry := deepvoice.NewDeviceRegistry()
			if err := registry.Initialize(); err != nil {
				deepvoice.GetGlobalLogger().WithError(err).Fatal("Audio initialization failed")
			}
			defer registry.Cleanup()

			if config.AudioDeviceID != nil {
				if vErr := registry.Select(*config.AudioDeviceID); vErr != nil {
					deepvoice.GetGlobalLogger().WithError(vErr).Fatal("Device selection failed")
				}
			}

			session := deepvoice.NewSessionController(
				deepvoice.NewBackendGateway(config),
				deepvoice.NewCapturePipeline(audioConfig),
				registry,
				deepvoice.NewPlayer(audioConfig),
			)
			defer session.Cleanup()

			session.AddErrorHandler(deepvoice.CreateErrorLoggingHandler("Talk"))
			if verbose {
				session.AddPhaseHandler(deepvoice.CreatePhaseLoggingHandler())
			}

			if uiAddr != "" {
				stream := deepvoice.NewUIStream(session, config.UIListenAddr)
				go func() {
					if err := stream.ListenAndServe(); err != nil {
						deepvoice.GetGlobalLogger().WithError(err).Error("UI stream failed")
					}
				}()
				defer stream.Shutdown(context.Background())
			}

			ctx := context.Background()
			if vErr := session.Start(ctx); vErr != nil {
				fmt.Printf("Session start failed: %s\n", vErr.Message)
				os.Exit(1)
			}

			fmt.Println(session.StatusMessage())
			runTalkLoop(ctx, session)
		},
	}

	cmd.Flags().StringVar(&uiAddr, "ui", "", "Serve the UI state stream on this address")
	cmd.Flags().Float64Var(&autoSilence, "auto-silence", 0, "End the turn after this many seconds of silence (0 disables)")
	return cmd
}

func runTalkLoop(ctx context.Context, session *deepvoice.SessionController) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		mode := "Topic"
		if session.Mode() == deepvoice.ConversationMode {
			mode = "Conversation"
		}
		fmt.Printf("\nPress Enter to speak (%s), or q + Enter to stop the conversation: ", mode)
		if !scanner.Scan() {
			break
		}
		if strings.TrimSpace(scanner.Text()) == "q" {
			break
		}

		if vErr := session.BeginTurn(); vErr != nil {
			fmt.Printf("Could not start the turn: %s\n", vErr.Message)
			continue
		}

		stopListening := make(chan struct{})
		if autoSilence > 0 {
			go watchSilence(session, time.Duration(autoSilence*float64(time.Second)), stopListening)
			fmt.Println("Listening... stop speaking to end the turn, or press Enter.")
		} else {
			fmt.Println("Listening... press Enter to stop.")
		}

		enter := make(chan struct{})
		go func() {
			if scanner.Scan() {
				close(enter)
			}
		}()

		select {
		case <-enter:
		case <-stopListening:
		}

		if vErr := session.EndTurn(ctx); vErr != nil {
			fmt.Printf("Turn failed: %s\n", vErr.Message)
			continue
		}

		fmt.Printf("Status:      %s\n", session.StatusMessage())
		if t := session.Transcribed(); t != "" {
			fmt.Printf("Transcribed: %s\n", t)
		}
		if a := session.Answer(); a != "" {
			fmt.Printf("Answer:      %s\n", a)
		}
	}

	if vErr := session.StopConversation(ctx); vErr != nil {
		fmt.Printf("Stop failed: %s\n", vErr.Message)
	} else {
		fmt.Println(session.StatusMessage())
	}
}

// watchSilence polls the session amplitude at display cadence and closes
// done once the silence detector fires.
func watchSilence(session *deepvoice.SessionController, window time.Duration, done chan struct{}) {
	detector := deepvoice.CreateSilenceDetector(0.01, window, func() {
		close(done)
	})

	ticker := time.NewTicker(33 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		if session.Phase() != deepvoice.PhaseListening {
			return
		}
		select {
		case <-done:
			return
		default:
		}
		detector(session.Amplitude())
	}
}

func devicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Audio device management",
		Long:  "Commands for listing and validating audio input devices",
	}

	cmd.AddCommand(devicesListCmd())
	cmd.AddCommand(devicesValidateCmd())

	return cmd
}

func devicesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available input devices",
		Run: func(cmd *cobra.Command, args []string) {
			registry := deepvoice.NewDeviceRegistry()
			if err := registry.Initialize(); err != nil {
				deepvoice.GetGlobalLogger().WithError(err).Fatal("Audio initialization failed")
			}
			defer registry.Cleanup()

			devices := registry.ListInputDevices()
			if len(devices) == 0 {
				fmt.Println("No input devices found. Microphone permission may not be granted yet.")
				return
			}

			fmt.Println("Input Devices:")
			for _, device := range devices {
				marker := ""
				if device.IsDefault {
					marker = " (Default)"
				}
				fmt.Printf("  %d: %s%s - %d channels (%.0f Hz)\n",
					device.ID, device.Label, marker, device.MaxInputChannels, device.DefaultSampleRate)
			}
		},
	}
}

func devicesValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [device-id]",
		Short: "Validate a device for recording",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id := 0
			if len(args) > 0 {
				fmt.Sscanf(args[0], "%d", &id)
			}

			registry := deepvoice.NewDeviceRegistry()
			if err := registry.Initialize(); err != nil {
				deepvoice.GetGlobalLogger().WithError(err).Fatal("Audio initialization failed")
			}
			defer registry.Cleanup()

			audioConfig := deepvoice.NewAudioConfig()
			if vErr := registry.ValidateDevice(id, audioConfig.Channels, float64(audioConfig.SampleRate)); vErr != nil {
				fmt.Printf("Device validation failed: %s\n", vErr.Message)
				return
			}
			fmt.Println("Device is usable for recording.")
		},
	}
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()

			config := buildConfig()
			config.PrintConfig()

			if issues := config.Validate(); len(issues) > 0 {
				fmt.Println("\nIssues:")
				for _, issue := range issues {
					fmt.Printf("  - %s\n", issue)
				}
			}
		},
	}
}

package main

import (
	"fmt"
	"os"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hgcsasdas/FFHS/internal/app"
	"github.com/hgcsasdas/FFHS/internal/config"
	"github.com/hgcsasdas/FFHS/internal/users"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer a.Close().
func newApp() (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "filehost",
	Short: "Multi-tenant content-addressable file hosting service",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		fmt.Println("Set auth.jwt_secret and admin.password before serving.")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Listen:   %s\n", cfg.ListenAddr)
		fmt.Printf("Log Dir:  %s\n", cfg.LogDir)
		fmt.Printf("Storage:  %s\n", cfg.Storage.Type)
		fmt.Printf("Database: %s\n", cfg.Database.Type)
		return nil
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Serve()
	},
}

// bucket command
var bucketCmd = &cobra.Command{
	Use:   "bucket",
	Short: "Manage buckets",
}

var bucketCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a bucket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		apiKey, err := a.Registry.Create(args[0])
		if err != nil {
			return fmt.Errorf("creating bucket: %w", err)
		}

		fmt.Printf("Bucket %q created\n", args[0])
		fmt.Printf("API key: %s\n", apiKey)
		return nil
	},
}

var bucketListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all buckets",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		buckets, err := a.Registry.List()
		if err != nil {
			return fmt.Errorf("listing buckets: %w", err)
		}

		if len(buckets) == 0 {
			fmt.Println("No buckets.")
			return nil
		}
		for _, b := range buckets {
			fmt.Printf("#%d  %-20s  %s  %s\n",
				b.ID, b.Name, b.APIKey, b.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var bucketDeleteCmd = &cobra.Command{
	Use:   "delete API_KEY",
	Short: "Delete a bucket and all its files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Registry.Delete(args[0]); err != nil {
			return fmt.Errorf("deleting bucket: %w", err)
		}

		fmt.Println("Bucket deleted")
		return nil
	},
}

var bucketRotateKeyCmd = &cobra.Command{
	Use:   "rotate-key API_KEY",
	Short: "Rotate a bucket's API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		newKey, err := a.Registry.RotateKey(args[0])
		if err != nil {
			return fmt.Errorf("rotating key: %w", err)
		}

		fmt.Printf("New API key: %s\n", newKey)
		return nil
	},
}

// user command
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create USERNAME",
	Short: "Create a user (password prompted)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		admin, _ := cmd.Flags().GetBool("admin")

		fmt.Print("Password: ")
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		role := users.RoleUser
		if admin {
			role = users.RoleAdmin
		}

		user, err := a.Users.Create(args[0], string(password), role)
		if err != nil {
			return fmt.Errorf("creating user: %w", err)
		}

		fmt.Printf("User %q created with role %s\n", user.Username, user.Role)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.Users.List()
		if err != nil {
			return fmt.Errorf("listing users: %w", err)
		}

		for _, u := range list {
			fmt.Printf("%s  %-20s  %-6s  enabled=%s\n",
				u.ID, u.Username, u.Role, strconv.FormatBool(u.Enabled))
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	bucketCmd.AddCommand(bucketCreateCmd)
	bucketCmd.AddCommand(bucketListCmd)
	bucketCmd.AddCommand(bucketDeleteCmd)
	bucketCmd.AddCommand(bucketRotateKeyCmd)

	userCreateCmd.Flags().Bool("admin", false, "Create with the admin role")
	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userListCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(bucketCmd)
	rootCmd.AddCommand(userCmd)
}

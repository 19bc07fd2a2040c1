package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	clientcmd "github.com/cuihairu/keeperhub/internal/cli/clientcmd"
	common "github.com/cuihairu/keeperhub/internal/cli/common"
	workercmd "github.com/cuihairu/keeperhub/internal/cli/workercmd"
)

func main() {
	root := &cobra.Command{Use: "keeperhub", Short: "KeeperHub companion tools", SilenceUsage: true}

	root.AddCommand(workercmd.New())
	root.AddCommand(clientcmd.New())
	root.AddCommand(newConfigCmd())

	// completion
	comp := &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate shell completion",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return root.GenBashCompletion(os.Stdout)
			case "zsh":
				return root.GenZshCompletion(os.Stdout)
			case "fish":
				return root.GenFishCompletion(os.Stdout, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return fmt.Errorf("unknown shell: %s", args[0])
		},
	}
	root.AddCommand(comp)

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func newConfigCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Inspect hub configuration"}

	var cfgFile, profile string
	var includes []string
	var strict, dump bool
	test := &cobra.Command{
		Use:   "test",
		Short: "Validate and optionally print the effective hub config",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile == "" {
				return fmt.Errorf("--config required")
			}
			v, err := common.LoadWithIncludes(cfgFile, includes)
			if err != nil {
				return err
			}
			if v, err = common.ApplySectionAndProfile(v, "", profile); err != nil {
				return err
			}
			if err := common.ValidateHubConfig(v, strict); err != nil {
				return err
			}
			if dump {
				out, err := yaml.Marshal(v.AllSettings())
				if err != nil {
					return err
				}
				_, _ = cmd.OutOrStdout().Write(out)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "hub config OK")
			return nil
		},
	}
	test.Flags().StringVar(&cfgFile, "config", "", "config file path")
	test.Flags().StringSliceVar(&includes, "include", nil, "config files merged over --config, in order")
	test.Flags().StringVar(&profile, "profile", "", "profiles.<name> overlay")
	test.Flags().BoolVar(&strict, "strict", false, "also require a data source and a resolvable parser binary")
	test.Flags().BoolVar(&dump, "print", false, "print the merged config as YAML")
	cfg.AddCommand(test)
	return cfg
}

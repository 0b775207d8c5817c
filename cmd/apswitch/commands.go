package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/muurk/apswitch/internal/config"
	"github.com/muurk/apswitch/internal/connect"
	"github.com/muurk/apswitch/internal/discovery"
	"github.com/muurk/apswitch/internal/ui"
)

// Command flags
var (
	requiredSSID   string
	printOnly      bool
	saveSSID       string
	saveBSSID      string
	assumeYes      bool
	browseTimeout  int
	browseSvcFlag  string
	browseProbeAll bool
)

func init() {
	copyBSSIDCmd.Flags().StringVar(&requiredSSID, "require-ssid", "", "Only copy when the current SSID contains this text (default from config)")
	copyBSSIDCmd.Flags().BoolVar(&printOnly, "print", false, "Print the BSSID instead of copying it")

	profileSaveCmd.Flags().StringVarP(&saveSSID, "ssid", "s", "", "Network name")
	profileSaveCmd.Flags().StringVarP(&saveBSSID, "bssid", "b", "", "Access point hardware address")
	profileSaveCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Overwrite an existing profile without asking")
	_ = profileSaveCmd.MarkFlagRequired("ssid")
	_ = profileSaveCmd.MarkFlagRequired("bssid")

	browseCmd.Flags().StringVar(&browseSvcFlag, "service", discovery.DefaultService, "DNS-SD service type")
	browseCmd.Flags().IntVar(&browseTimeout, "timeout", 5, "Browse timeout in seconds")
	browseCmd.Flags().BoolVar(&browseProbeAll, "probe", false, "Send an HTTP GET to each service found")

	profileCmd.AddCommand(profileListCmd, profileSaveCmd, profileRemoveCmd)
	rootCmd.AddCommand(statusCmd, copyBSSIDCmd, profileCmd, browseCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show Wi-Fi state and the current association",
	Long: `Show whether Wi-Fi is enabled, whether scanning is permitted for this user,
and which access point the Wi-Fi device is currently associated with.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	printer := ui.NewPrinter(cmd.OutOrStdout())

	b, err := openBackend(cmd.Context(), backendOptions{Interface: interfaceFor(reg)})
	if err != nil {
		printer.PrintError("NetworkManager unavailable", err)
		return err
	}
	defer b.Close()

	ctx := cmd.Context()
	result := ui.NewSuccessResult("Wi-Fi status")
	result.AddDetail("NetworkManager", b.client.Version())
	result.AddDetail("Interface", b.client.Interface())

	enabled, err := b.client.WifiEnabled(ctx)
	if err != nil {
		printer.PrintError("Failed to read Wi-Fi state", err)
		return err
	}
	result.AddDetail("Wi-Fi", onOff(enabled))
	if !enabled {
		result.Type = ui.ResultWarning
	}

	permitted, err := b.client.ScanPermitted(ctx)
	switch {
	case err != nil:
		result.AddDetail("Scanning", "unknown")
	case permitted:
		result.AddDetail("Scanning", "permitted")
	default:
		result.AddDetail("Scanning", "denied")
		result.Type = ui.ResultWarning
	}

	info, err := b.client.ConnectionInfo(ctx)
	switch {
	case err != nil:
		result.AddDetail("Association", "unknown")
	case !info.Connected():
		result.AddDetail("Association", "none")
	default:
		result.AddDetail("SSID", info.SSID)
		result.AddDetail("BSSID", strings.ToUpper(info.BSSID))
		if name, ok := reg.FindByBSSID(info.BSSID); ok {
			result.AddDetail("Profile", name)
		}
	}

	printer.Println(result.Render())
	return nil
}

var copyBSSIDCmd = &cobra.Command{
	Use:   "copy-bssid",
	Short: "Copy the BSSID of the current association to the clipboard",
	Long: `Read the hardware address of the access point the Wi-Fi device is currently
associated with and copy it to the clipboard, ready to paste into a profile.

With --require-ssid (or required_ssid in the config) the copy only happens
when the current SSID contains that text.`,
	Example: `  apswitch copy-bssid --require-ssid Deeper
  apswitch profile save deeper --ssid "Deeper CHIRP+" --bssid "$(apswitch copy-bssid --print)"`,
	RunE: runCopyBSSID,
}

func runCopyBSSID(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	printer := ui.NewPrinter(cmd.ErrOrStderr())

	b, err := openBackend(cmd.Context(), backendOptions{Interface: interfaceFor(reg)})
	if err != nil {
		printer.PrintError("NetworkManager unavailable", err)
		return err
	}
	defer b.Close()

	required := requiredSSID
	if required == "" {
		required = reg.Preferences.RequiredSSID
	}

	addr, err := b.ctrl.CurrentAddress(cmd.Context(), required)
	if err != nil {
		printer.PrintError("Cannot read BSSID", err)
		return err
	}

	if printOnly {
		fmt.Fprintln(cmd.OutOrStdout(), addr)
		return nil
	}

	if err := clipboard.WriteAll(addr); err != nil {
		err = connect.NewBackendError("failed to write clipboard", err)
		printer.PrintError("Cannot copy BSSID", err, "Install xclip, xsel or wl-clipboard", "Use --print to write the BSSID to stdout")
		return err
	}
	printer.PrintSuccess("BSSID copied to clipboard", ui.Detail{Key: "BSSID", Value: addr})
	return nil
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage saved access point profiles",
	Long: `Profiles store an SSID and BSSID under a short name so that connect and the
interactive screen can be prefilled with --profile. Passphrases are never
stored.`,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		names := reg.ProfileNames()
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No profiles saved.")
			fmt.Fprintln(cmd.OutOrStdout(), "Use 'apswitch profile save <name> --ssid <ssid> --bssid <bssid>' to add one.")
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), renderProfiles(reg, names))
		return nil
	},
}

var (
	profileNameStyle = lipgloss.NewStyle().Foreground(ui.PrimaryColor).Bold(true).Width(16)
	profileCellStyle = lipgloss.NewStyle().Foreground(ui.TextColor).Width(20)
	profileMuted     = lipgloss.NewStyle().Foreground(ui.MutedColor)
)

func renderProfiles(reg *config.Registry, names []string) string {
	var b strings.Builder
	b.WriteString(profileMuted.Render(fmt.Sprintf("%-16s%-20s%-20s%s", "NAME", "SSID", "BSSID", "LAST RESULT")) + "\n")
	for _, name := range names {
		p := reg.GetProfile(name)
		last := "never used"
		if !p.LastUsed.IsZero() {
			last = fmt.Sprintf("%s (%s)", p.LastResult, p.LastUsed.Format("2006-01-02 15:04"))
		}
		b.WriteString(profileNameStyle.Render(name) +
			profileCellStyle.Render(p.SSID) +
			profileCellStyle.Render(p.BSSID) +
			profileMuted.Render(last) + "\n")
	}
	return b.String()
}

var profileSaveCmd = &cobra.Command{
	Use:     "save <name>",
	Short:   "Save or update a profile",
	Args:    cobra.ExactArgs(1),
	Example: `  apswitch profile save deeper --ssid "Deeper CHIRP+" --bssid AA:BB:CC:DD:EE:FF`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		name := args[0]
		printer := ui.NewPrinter(cmd.OutOrStdout())

		if existing := reg.GetProfile(name); existing != nil && !assumeYes {
			question := fmt.Sprintf("Profile %q exists (%s, %s). Overwrite?", name, existing.SSID, existing.BSSID)
			if !ui.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), question) {
				return nil
			}
		}

		p, err := reg.SaveProfile(name, saveSSID, saveBSSID)
		if err != nil {
			printer.PrintError("Invalid profile", err)
			return err
		}
		if err := saveRegistry(reg); err != nil {
			return err
		}
		printer.PrintSuccess("Profile saved",
			ui.Detail{Key: "Name", Value: name},
			ui.Detail{Key: "SSID", Value: p.SSID},
			ui.Detail{Key: "BSSID", Value: p.BSSID},
		)
		return nil
	},
}

var profileRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a profile",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		if !reg.RemoveProfile(args[0]) {
			return fmt.Errorf("profile %q not found", args[0])
		}
		if err := saveRegistry(reg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed profile %q\n", args[0])
		return nil
	},
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse for DNS-SD services on the Wi-Fi link",
	Long: `Browse for DNS-SD (mDNS) service instances on the Wi-Fi interface.

Run it while connected to the access point, or use 'apswitch connect
--browse' to browse automatically once the network becomes available.`,
	Example: `  apswitch browse
  apswitch browse --service _deeper._tcp --timeout 10
  apswitch browse -i wlan1 --probe`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		printer := ui.NewPrinter(cmd.OutOrStdout())

		iface := interfaceFor(reg)
		if iface == "" {
			if b, err := openBackend(cmd.Context(), backendOptions{}); err == nil {
				iface = b.client.Interface()
				b.Close()
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Browsing for %s on %s (timeout: %ds)...\n\n", browseSvcFlag, orAll(iface), browseTimeout)
		services, err := discovery.Browse(cmd.Context(), discovery.Options{
			Interface: iface,
			Service:   browseSvcFlag,
			Timeout:   time.Duration(browseTimeout) * time.Second,
		})
		if err != nil {
			printer.PrintError("Browse failed", err)
			return err
		}
		printServices(printer, services)
		if browseProbeAll {
			for _, svc := range services {
				printer.Println(probe(cmd.Context(), svc))
			}
		}
		return nil
	},
}

func printServices(printer *ui.Printer, services []*discovery.Service) {
	if len(services) == 0 {
		printer.PrintWarning("No services found",
			ui.Detail{Key: "Hint", Value: "Check the service type and that the device advertises over mDNS"},
		)
		return
	}

	printer.Println(fmt.Sprintf("Found %d service(s):", len(services)))
	printer.Newline()
	for i, svc := range services {
		printer.Println(fmt.Sprintf("%d. %s", i+1, svc.Instance))
		printer.Println("   Host:    " + svc.HostName)
		printer.Println("   Address: " + svc.Addr())
		if len(svc.Metadata) > 0 {
			printer.Println(fmt.Sprintf("   TXT:     %v", svc.Metadata))
		}
		printer.Newline()
	}
}

// probe issues a GET through http.DefaultTransport, which follows the
// process binding
func probe(ctx context.Context, svc *discovery.Service) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, svc.BaseURL(), nil)
	if err != nil {
		return fmt.Sprintf("%s %s: %v", ui.FailureMarker, svc.BaseURL(), err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Sprintf("%s %s: %v", ui.FailureMarker, svc.BaseURL(), err)
	}
	defer resp.Body.Close()
	n, _ := io.Copy(io.Discard, resp.Body)
	return fmt.Sprintf("%s %s: %s (%s bytes)", ui.SuccessMarker, svc.BaseURL(), resp.Status, strconv.FormatInt(n, 10))
}

func onOff(v bool) string {
	if v {
		return "enabled"
	}
	return "disabled"
}

func orAll(iface string) string {
	if iface == "" {
		return "all interfaces"
	}
	return iface
}

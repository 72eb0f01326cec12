// Command hubctl prints the live state of a hub instance from its admin gRPC endpoint.
package main

import (
	grpcclient "chat-hub/infrastructure/grpc/client"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type Config struct {
	GRPCAddr   string        `envconfig:"HUB_GRPC_ADDR" default:"localhost:50051"`
	AdminToken string        `envconfig:"HUB_ADMIN_TOKEN"`
	Timeout    time.Duration `envconfig:"HUBCTL_TIMEOUT" default:"5s"`
}

func main() {
	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Config error: %v", err)
	}
	addr := flag.String("addr", cfg.GRPCAddr, "Admin gRPC address")
	token := flag.String("token", cfg.AdminToken, "Admin bearer token")
	flag.Parse()

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("Unable to reach %s: %v", *addr, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	admin := grpcclient.NewAdminClient(conn, *token)
	serving, err := admin.Serving(ctx)
	if err != nil {
		log.Fatalf("Health check failed: %v", err)
	}
	if !serving {
		fmt.Println(color.FgYellow.Render("admin service is not serving"))
		os.Exit(1)
	}

	snapshot, err := admin.Snapshot(ctx)
	if err != nil {
		log.Fatalf("Snapshot failed: %v", err)
	}
	fields := snapshot.AsMap()

	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(fmt.Sprintf("  ====== instance %v ======", fields["instance"])))
	fmt.Printf("connections=%v identified=%v typing=%v\n\n", fields["connections"], fields["identified"], fields["typing"])

	rooms := newTable("Room", "Members", "Messages", "Typing", "Expired", "Joins", "Leaves", "Last activity")
	activity := indexByRoom(fields["activity"])
	for _, raw := range list(fields["rooms"]) {
		room, _ := raw.(map[string]any)
		id := fmt.Sprint(room["room"])
		a := activity[id]
		rooms.Append([]string{
			id, number(room["members"]),
			number(a["messages"]), number(a["typing_starts"]), number(a["typing_expired"]),
			number(a["joins"]), number(a["leaves"]), fmt.Sprint(orDash(a["last_activity"])),
		})
	}
	rooms.Render()

	fmt.Println()
	counters := newTable("Counter", "Value")
	monitoring, _ := fields["monitoring"].(map[string]any)
	keys := make([]string, 0, len(monitoring))
	for k := range monitoring {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		counters.Append([]string{k, fmt.Sprint(monitoring[k])})
	}
	counters.Render()
}

func newTable(header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func list(v any) []any {
	out, _ := v.([]any)
	return out
}

func indexByRoom(v any) map[string]map[string]any {
	out := make(map[string]map[string]any)
	for _, raw := range list(v) {
		if room, ok := raw.(map[string]any); ok {
			out[fmt.Sprint(room["room"])] = room
		}
	}
	return out
}

// number prints structpb numbers, which all decode as float64.
func number(v any) string {
	f, ok := v.(float64)
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.0f", f)
}

func orDash(v any) any {
	if v == nil {
		return "-"
	}
	return v
}

package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lazharichir/holdem/table"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newTablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the tables of a running server",
		RunE:  runTables,
	}
	cmd.Flags().String("addr", "http://localhost:8080", "server base URL")
	return cmd
}

func runTables(cmd *cobra.Command, _ []string) error {
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}

	tables, err := fetchTables(cmd, strings.TrimRight(addr, "/"))
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		pterm.Info.Println("No open tables")
		return nil
	}
	return pterm.DefaultTable.WithHasHeader().WithData(tableRows(tables)).Render()
}

func fetchTables(cmd *cobra.Command, addr string) ([]table.Summary, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, addr+"/api/tables", nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list tables: %s", resp.Status)
	}
	var tables []table.Summary
	if err := json.NewDecoder(resp.Body).Decode(&tables); err != nil {
		return nil, fmt.Errorf("decode tables: %w", err)
	}
	return tables, nil
}

func tableRows(tables []table.Summary) pterm.TableData {
	rows := pterm.TableData{{"ID", "Name", "Players", "Blinds", "Phase", "Hand", "Locked"}}
	for _, t := range tables {
		locked := ""
		if t.HasPassword {
			locked = pterm.LightYellow("yes")
		}
		rows = append(rows, []string{
			t.ID,
			t.Name,
			fmt.Sprintf("%d/%d", t.Players, t.MaxPlayers),
			fmt.Sprintf("%d/%d", t.SmallBlind, t.BigBlind),
			string(t.Phase),
			strconv.Itoa(t.HandNumber),
			locked,
		})
	}
	return rows
}

package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stevemurr/kvtable/table"
)

func newTableCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Manage document tables",
	}
	cmd.AddCommand(tableListCmd(v))
	cmd.AddCommand(tableShowCmd(v))
	cmd.AddCommand(tableInsertCmd(v))
	cmd.AddCommand(tableUpdateCmd(v))
	cmd.AddCommand(tableDeleteCmd(v))
	cmd.AddCommand(tableDropCmd(v))
	return cmd
}

func addFilterFlag(cmd *cobra.Command, usage string) {
	cmd.Flags().StringArrayP("filter", "f", nil, usage)
}

func getFilter(cmd *cobra.Command) (table.Filter, error) {
	pairs, err := cmd.Flags().GetStringArray("filter")
	if err != nil {
		return nil, err
	}
	return parseFilter(pairs)
}

func printDocument(w io.Writer, doc table.Document) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func tableListCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List keys holding tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := newTableStore(cmd, v)
			if err != nil {
				return err
			}
			defer closeFn()
			names, err := s.ListTables(cmd.Context())
			if err != nil {
				return err
			}
			c := color.New(color.FgCyan)
			for _, name := range names {
				c.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func tableShowCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Print documents of a table, one JSON object per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := getFilter(cmd)
			if err != nil {
				return err
			}
			one, err := cmd.Flags().GetBool("one")
			if err != nil {
				return err
			}
			s, closeFn, err := newTableStore(cmd, v)
			if err != nil {
				return err
			}
			defer closeFn()
			tbl, err := s.GetTable(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if one {
				doc, ok := tbl.GetOne(filter)
				if !ok {
					return fmt.Errorf("no document in %q matches", args[0])
				}
				return printDocument(cmd.OutOrStdout(), doc)
			}
			for _, doc := range tbl.Get(filter) {
				if err := printDocument(cmd.OutOrStdout(), doc); err != nil {
					return err
				}
			}
			return nil
		},
	}
	addFilterFlag(cmd, "only show documents with field equal to value, as field=value")
	cmd.Flags().Bool("one", false, "print only the first matching document")
	return cmd
}

func tableInsertCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insert NAME JSON",
		Short: "Append a document to a table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := parseDocument(args[1])
			if err != nil {
				return err
			}
			genID, err := cmd.Flags().GetBool("gen-id")
			if err != nil {
				return err
			}
			if _, ok := doc["id"]; genID && !ok {
				doc["id"] = uuid.New().String()
			}
			s, closeFn, err := newTableStore(cmd, v)
			if err != nil {
				return err
			}
			defer closeFn()
			tbl, err := s.GetTable(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := tbl.Insert(cmd.Context(), doc); err != nil {
				return err
			}
			return printDocument(cmd.OutOrStdout(), doc)
		},
	}
	cmd.Flags().Bool("gen-id", false, `set "id" to a random UUID when the document has none`)
	return cmd
}

func tableUpdateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update NAME JSON",
		Short: "Replace documents whose filter fields are all set",
		Long: `Replace with JSON every document in which all filter fields are present
and truthy. Filter values are not compared: -f id=1 matches any document with
a truthy "id".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := parseDocument(args[1])
			if err != nil {
				return err
			}
			filter, err := getFilter(cmd)
			if err != nil {
				return err
			}
			s, closeFn, err := newTableStore(cmd, v)
			if err != nil {
				return err
			}
			defer closeFn()
			tbl, err := s.GetTable(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return tbl.Update(cmd.Context(), doc, filter)
		},
	}
	addFilterFlag(cmd, "field that must be set, as field=value")
	cmd.MarkFlagRequired("filter")
	return cmd
}

func tableDeleteCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Remove documents in which any filter field is set",
		Long: `Remove every document in which at least one filter field is present and
truthy. Filter values are not compared.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := getFilter(cmd)
			if err != nil {
				return err
			}
			s, closeFn, err := newTableStore(cmd, v)
			if err != nil {
				return err
			}
			defer closeFn()
			tbl, err := s.GetTable(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return tbl.Delete(cmd.Context(), filter)
		},
	}
	addFilterFlag(cmd, "field that may be set, as field=value")
	cmd.MarkFlagRequired("filter")
	return cmd
}

func tableDropCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "drop NAME",
		Short: "Delete a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := newTableStore(cmd, v)
			if err != nil {
				return err
			}
			defer closeFn()
			return s.DropTable(cmd.Context(), args[0])
		},
	}
}

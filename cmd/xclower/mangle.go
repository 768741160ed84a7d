package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"xclower/internal/mangle"
)

var mangleCmd = &cobra.Command{
	Use:   "mangle",
	Short: "Print the flat name of an entity",
	Long: `Print the flat name of an entity described by flags, e.g.

  xclower mangle --kind ctor --scope Counter --params int
  xclower mangle --name getMax --template-args uint8_t --params uint8_t,uint8_t
  xclower mangle --kind operator --scope Point --operator + --params Point`,
	Args: cobra.NoArgs,
	RunE: runMangle,
}

var demangleCmd = &cobra.Command{
	Use:   "demangle <name>...",
	Short: "Recover the entity a flat name designates",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDemangle,
}

var entityKinds = map[string]mangle.EntityKind{
	"function":     mangle.EntityFunction,
	"ctor":         mangle.EntityCtor,
	"dtor":         mangle.EntityDtor,
	"operator":     mangle.EntityOperator,
	"struct":       mangle.EntityStruct,
	"global":       mangle.EntityGlobal,
	"static":       mangle.EntityStatic,
	"local-static": mangle.EntityLocalStatic,
}

func init() {
	addMangleFlags(mangleCmd)
	demangleCmd.Flags().Bool("json", false, "print the recovered key as JSON")
}

func addMangleFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("kind", "function", "entity kind (function|ctor|dtor|operator|struct|global|static|local-static)")
	f.String("scope", "", "enclosing namespaces and classes, '::' separated")
	f.String("name", "", "entity name")
	f.String("operator", "", "operator symbol for --kind operator (e.g. +, +=, [])")
	f.Bool("unary", false, "the operator is the prefix unary form")
	f.Bool("postfix", false, "the operator is postfix ++ or --")
	f.StringSlice("params", nil, "parameter base types, comma separated")
	f.StringSlice("template-args", nil, "template arguments; '=N' marks a value argument")
	f.String("owner", "", "flat name of the enclosing procedure for --kind local-static")
	f.Bool("guard", false, "name the one-time-initialization guard of a slot")
}

func keyFromFlags(cmd *cobra.Command) (mangle.Key, error) {
	f := cmd.Flags()
	kindStr, _ := f.GetString("kind")
	kind, ok := entityKinds[kindStr]
	if !ok {
		return mangle.Key{}, fmt.Errorf("unknown --kind %q", kindStr)
	}
	k := mangle.Key{Kind: kind}
	if scope, _ := f.GetString("scope"); scope != "" {
		k.Scope = strings.Split(scope, "::")
	}
	k.Name, _ = f.GetString("name")
	k.Params, _ = f.GetStringSlice("params")
	k.Owner, _ = f.GetString("owner")
	k.Guard, _ = f.GetBool("guard")

	targs, _ := f.GetStringSlice("template-args")
	for _, a := range targs {
		if v, ok := strings.CutPrefix(a, "="); ok {
			k.TemplateArgs = append(k.TemplateArgs, mangle.TemplateArg{Value: v, IsValue: true})
		} else {
			k.TemplateArgs = append(k.TemplateArgs, mangle.TemplateArg{Type: a})
		}
	}

	if kind == mangle.EntityOperator {
		op, _ := f.GetString("operator")
		unary, _ := f.GetBool("unary")
		postfix, _ := f.GetBool("postfix")
		word, ok := mangle.OperatorWord(op, unary, postfix)
		if !ok {
			return mangle.Key{}, fmt.Errorf("operator %q: %w", op, mangle.ErrUnsupportedOperator)
		}
		k.Operator = word
	}
	return k, nil
}

func runMangle(cmd *cobra.Command, _ []string) error {
	k, err := keyFromFlags(cmd)
	if err != nil {
		return err
	}
	name, err := mangle.Mangle(k)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), name)
	return err
}

type demangled struct {
	Name string     `json:"name"`
	Kind string     `json:"kind"`
	Key  mangle.Key `json:"key"`
	// Source is the entity in source-like syntax.
	Source string `json:"source"`
}

func runDemangle(cmd *cobra.Command, args []string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	var all []demangled
	for _, name := range args {
		k, err := mangle.Demangle(name)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		d := demangled{Name: name, Kind: k.Kind.String(), Key: k, Source: k.Display()}
		if asJSON {
			all = append(all, d)
			continue
		}
		if _, err := fmt.Fprintf(out, "%s\t%s\t%s\n", d.Name, d.Kind, d.Source); err != nil {
			return err
		}
	}
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(all)
	}
	return nil
}

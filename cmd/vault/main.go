// Package main implements the interactive SecureVault shell: a REPL that
// drives the session state machine and manages the secret collections of
// the signed-in account.
package main

import (
	"bufio"
	"cmp"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/atinyakov/SecureVault/internal/common"
	"github.com/atinyakov/SecureVault/internal/kv"
	"github.com/atinyakov/SecureVault/internal/models"
	"github.com/atinyakov/SecureVault/internal/repository"
	"github.com/atinyakov/SecureVault/internal/service"
)

var (
	version   string
	buildDate string
)

func main() {
	vaultFile := flag.String("f", "vault.json", "vault file path")
	flag.Parse()

	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	store, err := kv.NewFileStore(*vaultFile)
	if err != nil {
		log.Fatalf("failed to open vault file: %v", err)
	}
	accounts := repository.NewAccountStore(store)

	ctx := context.Background()
	sessions, err := service.NewSessionEngine(ctx, accounts)
	if err != nil {
		log.Fatalf("failed to init session: %v", err)
	}
	vault := service.NewVaultService(accounts, sessions)

	repl(ctx, sessions, vault)
}

// repl runs the interactive shell loop. The available commands depend on the
// session state; a command issued in the wrong state reports the mismatch
// and changes nothing.
func repl(ctx context.Context, sessions *service.SessionEngine, vault *service.VaultService) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("vault [%s]> ", sessions.State())
		if !scanner.Scan() {
			break
		}
		args := strings.Fields(strings.TrimSpace(scanner.Text()))
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			printHelp(sessions.State())
		case "signup":
			name := promptLine(scanner, "Name: ")
			email := promptLine(scanner, "Email: ")
			credential := promptSecret(scanner, "Credential: ")
			confirm := promptSecret(scanner, "Confirm credential: ")
			report(sessions.SignUp(ctx, name, email, credential, confirm))
		case "signin":
			email := promptLine(scanner, "Email: ")
			credential := promptSecret(scanner, "Credential: ")
			report(sessions.SignIn(ctx, email, credential))
		case "quick":
			pin := promptSecret(scanner, "Quick access code: ")
			report(sessions.TryQuickAccess(ctx, pin))
		case "full":
			report(sessions.SwitchToFullSignIn())
		case "pin":
			pin := promptSecret(scanner, "New 4-digit PIN: ")
			confirm := promptSecret(scanner, "Confirm PIN: ")
			report(sessions.EnrollQuickAccess(ctx, pin, confirm))
		case "skip":
			report(sessions.SkipQuickAccessSetup())
		case "reset-pin":
			report(sessions.RequestPinReset(ctx))
		case "lock":
			report(sessions.Lock(ctx))
		case "signout":
			report(sessions.SignOutFully(ctx))
		case "whoami":
			acct, err := sessions.ActiveAccount(ctx)
			if err != nil {
				printErr(err)
				continue
			}
			fmt.Printf("%s <%s>\n", acct.Name, acct.Email)
		case "list":
			kind, ok := kindArg(args)
			if !ok {
				continue
			}
			items, err := vault.ListItems(ctx, kind)
			if err != nil {
				printErr(err)
				continue
			}
			printItems(kind, items)
		case "add":
			kind, ok := kindArg(args)
			if !ok {
				continue
			}
			title := promptLine(scanner, "Title: ")
			content := promptLine(scanner, "Content: ")
			description := promptLine(scanner, "Description (optional): ")
			item, err := vault.AddItem(ctx, kind, title, content, description)
			if err != nil {
				printErr(err)
				continue
			}
			fmt.Printf("Added %q (id %s)\n", item.Title, item.ID)
		case "delete":
			kind, ok := kindArg(args)
			if !ok {
				continue
			}
			if len(args) < 3 {
				fmt.Println("Usage: delete <credentials|documents|notes> <id>")
				continue
			}
			if err := vault.DeleteItem(ctx, kind, args[2]); err != nil {
				printErr(err)
				continue
			}
			fmt.Println("Deleted")
		case "exit", "quit":
			return
		default:
			fmt.Printf("Unknown command %q, try \"help\"\n", args[0])
		}
	}
}

// printHelp lists the commands that make sense in the given state.
func printHelp(state service.State) {
	switch state {
	case service.StateUnauthenticatedFull:
		fmt.Println("Available commands: signup, signin, help, exit")
	case service.StateUnauthenticatedQuick:
		fmt.Println("Available commands: quick, full, reset-pin, signout, help, exit")
	case service.StatePinSetup:
		fmt.Println("Available commands: pin, skip, help, exit")
	case service.StateAuthenticated:
		fmt.Println("Available commands: list <kind>, add <kind>, delete <kind> <id>, whoami, reset-pin, lock, signout, help, exit")
		fmt.Println("Kinds: credentials, documents, notes")
	}
}

// kindArg parses the collection kind argument of a vault command.
func kindArg(args []string) (models.CollectionKind, bool) {
	if len(args) < 2 {
		fmt.Printf("Usage: %s <credentials|documents|notes>\n", args[0])
		return "", false
	}
	kind, err := models.ParseCollectionKind(args[1])
	if err != nil {
		fmt.Println(err)
		return "", false
	}
	return kind, true
}

func printItems(kind models.CollectionKind, items []models.SecretItem) {
	if len(items) == 0 {
		fmt.Printf("No %s stored yet\n", kind)
		return
	}
	for _, item := range items {
		fmt.Printf("ID: %s\nTitle: %s\nContent: %s\n", item.ID, item.Title, item.Content)
		if item.Description != "" {
			fmt.Printf("Description: %s\n", item.Description)
		}
		fmt.Printf("Created: %s\n---\n", item.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}

// report prints the outcome of a session transition.
func report(state service.State, err error) {
	if err != nil {
		printErr(err)
		return
	}
	fmt.Printf("OK, state: %s\n", state)
}

// printErr renders a structured error, listing every violated field of a
// validation failure.
func printErr(err error) {
	if ve, ok := common.AsValidation(err); ok {
		for _, f := range ve.Fields {
			fmt.Printf("  %s: %s\n", f.Field, f.Message)
		}
		return
	}
	if errors.Is(err, common.ErrNoRememberedDevice) {
		fmt.Println("No remembered device, use email & credential instead")
		return
	}
	fmt.Println(err)
}

// promptLine reads one line of visible input.
func promptLine(scanner *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(scanner.Text())
}

// promptSecret reads one line without echoing it back when stdin is a
// terminal, falling back to plain input otherwise.
func promptSecret(scanner *bufio.Scanner, label string) string {
	fmt.Print(label)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(b))
	}
	if !scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(scanner.Text())
}

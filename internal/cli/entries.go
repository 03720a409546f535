package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/avlasov/securevault/internal/api"
	"github.com/avlasov/securevault/internal/common"
	"github.com/avlasov/securevault/internal/models"
	"github.com/avlasov/securevault/internal/vault"
)

// List prints the whole vault, newest first.
func (a *App) List(ctx context.Context) error {
	a.printEntries(a.vault.Entries())
	return nil
}

// Search prompts for a term and prints the matching entries.
func (a *App) Search(ctx context.Context) error {
	term, err := getSimpleText(a.reader, "Search term (service or username)", a.out)
	if err != nil {
		return err
	}
	a.printEntries(a.vault.Search(term))
	return nil
}

func (a *App) printEntries(entries []models.VaultEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No entries")
		return
	}

	w := tabwriter.NewWriter(a.out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSERVICE\tUSERNAME\tPASSWORD\tCREATED\tNOTES")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.ServiceName, e.Username, e.Password,
			e.CreatedAt.Format("2006-01-02"), e.Notes)
	}
	_ = w.Flush()
}

// Add prompts for the entry fields and creates the entry.
func (a *App) Add(ctx context.Context) error {
	service, err := getSimpleText(a.reader, "Service name", a.out)
	if err != nil {
		return err
	}
	username, err := getSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out, "Password")
	if err != nil {
		return err
	}
	notes, err := getSimpleText(a.reader, "Notes (optional)", a.out)
	if err != nil {
		return err
	}

	entry, err := a.vault.Add(ctx, vault.Draft{
		ServiceName: service,
		Username:    username,
		Password:    password,
		Notes:       notes,
	})
	if err != nil {
		fmt.Fprintln(a.out, a.vaultFailure(err, "Failed to add entry"))
		return err
	}

	fmt.Fprintf(a.out, "Added entry %d (%s)\n", entry.ID, entry.ServiceName)
	return nil
}

// Update prompts for an entry id and new values; empty input keeps a field.
func (a *App) Update(ctx context.Context) error {
	id, err := a.promptEntryID()
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "New password (empty to keep)")
	if err != nil {
		return err
	}
	notes, err := getSimpleText(a.reader, "New notes (empty to keep)", a.out)
	if err != nil {
		return err
	}

	patch := vault.Patch{}
	if password != "" {
		patch.Password = &password
	}
	if notes != "" {
		patch.Notes = &notes
	}
	if patch.Password == nil && patch.Notes == nil {
		fmt.Fprintln(a.out, "Nothing to update")
		return nil
	}

	if err := a.vault.Update(ctx, id, patch); err != nil {
		fmt.Fprintln(a.out, a.vaultFailure(err, "Failed to update entry"))
		return err
	}
	fmt.Fprintln(a.out, "Entry updated")
	return nil
}

// Delete prompts for an entry id, asks for confirmation and removes it.
func (a *App) Delete(ctx context.Context) error {
	id, err := a.promptEntryID()
	if err != nil {
		return err
	}

	answer, err := getSimpleText(a.reader, fmt.Sprintf("Delete entry %d? (y/N)", id), a.out)
	if err != nil {
		return err
	}
	if answer != "y" && answer != "Y" {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}

	if err := a.vault.Delete(ctx, id); err != nil {
		fmt.Fprintln(a.out, a.vaultFailure(err, "Failed to delete entry"))
		return err
	}
	fmt.Fprintln(a.out, "Entry deleted")
	return nil
}

func (a *App) promptEntryID() (int64, error) {
	raw, err := getSimpleText(a.reader, "Entry ID", a.out)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		fmt.Fprintln(a.out, "Invalid ID:", raw)
		return 0, fmt.Errorf("%w: invalid entry id %q", common.ErrValidation, raw)
	}
	return id, nil
}

func (a *App) vaultFailure(err error, fallback string) string {
	if errors.Is(err, common.ErrValidation) {
		return common.ValidationMessage(err)
	}
	return api.ErrorMessage(err, fallback)
}

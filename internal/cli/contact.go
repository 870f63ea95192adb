package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vitalwatch/vitalwatch/internal/store"
)

var contactCmd = &cobra.Command{
	Use:   "contact",
	Short: "Manage emergency contacts",
}

var (
	contactUser     string
	contactName     string
	contactPhone    string
	contactRelation string
)

var contactAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an emergency contact",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		if err := st.UpsertUser(ctx, contactUser, contactUser); err != nil {
			return err
		}
		c, err := st.AddContact(ctx, &store.Contact{
			OwnerID:      contactUser,
			Name:         contactName,
			Phone:        contactPhone,
			Relationship: contactRelation,
		})
		if err != nil {
			return err
		}
		fmt.Printf("✓ Contact #%d %s (%s)\n", c.ID, c.Name, c.Phone)
		return nil
	},
}

var contactListCmd = &cobra.Command{
	Use:   "list",
	Short: "List emergency contacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		contacts, err := st.ListContacts(cmd.Context(), contactUser)
		if err != nil {
			return err
		}
		if len(contacts) == 0 {
			fmt.Println("No contacts found.")
			return nil
		}
		for _, c := range contacts {
			line := fmt.Sprintf("#%-4d %-20s %s", c.ID, c.Name, c.Phone)
			if c.Relationship != "" {
				line += "  (" + c.Relationship + ")"
			}
			fmt.Println(line)
		}
		return nil
	},
}

var contactDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an emergency contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id int64
		if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
			return fmt.Errorf("invalid contact id %q", args[0])
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.DeleteContact(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("✓ Contact #%d deleted\n", id)
		return nil
	},
}

func init() {
	contactAddCmd.Flags().StringVar(&contactUser, "user", "", "user handle")
	contactAddCmd.Flags().StringVar(&contactName, "name", "", "contact name")
	contactAddCmd.Flags().StringVar(&contactPhone, "phone", "", "contact phone number")
	contactAddCmd.Flags().StringVar(&contactRelation, "relationship", "", "relationship to the user")
	contactAddCmd.MarkFlagRequired("user")
	contactAddCmd.MarkFlagRequired("name")
	contactAddCmd.MarkFlagRequired("phone")

	contactListCmd.Flags().StringVar(&contactUser, "user", "", "user handle")
	contactListCmd.MarkFlagRequired("user")

	contactCmd.AddCommand(contactAddCmd)
	contactCmd.AddCommand(contactListCmd)
	contactCmd.AddCommand(contactDeleteCmd)
}

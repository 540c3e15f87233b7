package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/emrgen/knuth"
	"github.com/emrgen/knuth/internal/model"
	"github.com/emrgen/knuth/internal/service"
	"github.com/emrgen/knuth/internal/store"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(createDocCmd())
	rootCmd.AddCommand(attachDocCmd())
	rootCmd.AddCommand(getDocCmd())
	rootCmd.AddCommand(listDocCmd())
	rootCmd.AddCommand(updateDocCmd())
	rootCmd.AddCommand(uploadDocCmd())
	rootCmd.AddCommand(deleteDocCmd())
	rootCmd.AddCommand(indexDocCmd())
}

func bindDocumentFlags(command *cobra.Command, input *service.CreateDocumentInput) {
	command.Flags().StringVarP(&input.Title, "title", "t", "", "title of the document")
	command.Flags().StringVarP(&input.Author, "author", "a", "", "author of the document")
	command.Flags().StringVar(&input.DOI, "doi", "", "digital object identifier")
	command.Flags().StringSliceVar(&input.Tags, "tag", nil, "tag, repeatable")
}

func createDocCmd() *cobra.Command {
	var input service.CreateDocumentInput
	var parentID uint

	command := &cobra.Command{
		Use:     "create",
		Short:   "create a document",
		Example: "knuth create -t <title> -a <author> --doi <doi> --tag <tag> --tag <tag>",
		Run: func(cmd *cobra.Command, args []string) {
			withClient(cmd, func(client *knuth.Client) error {
				if cmd.Flag("parent").Changed {
					input.Parent = &parentID
				}

				id, err := client.Documents.CreateDocument(cmd.Context(), input)
				if err != nil {
					return err
				}

				logrus.Infof("document created with id: %d", id)
				return nil
			})
		},
	}

	bindDocumentFlags(command, &input)
	command.Flags().StringVar(&input.Type, "type", model.TypeDocument, "type of the document")
	command.Flags().UintVarP(&parentID, "parent", "p", 0, "parent document id")

	command.Flags().SortFlags = false

	return command
}

func attachDocCmd() *cobra.Command {
	var input service.CreateDocumentInput
	var parentID uint

	var required = []string{"parent"}

	command := &cobra.Command{
		Use:     "attach",
		Short:   "create an attachment below a document",
		Example: "knuth attach -p <parent-id> -t <title>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			withClient(cmd, func(client *knuth.Client) error {
				id, err := client.Documents.CreateAttachment(cmd.Context(), parentID, input)
				if err != nil {
					return err
				}

				logrus.Infof("attachment created with id: %d", id)
				return nil
			})
		},
	}

	command.Flags().UintVarP(&parentID, "parent", "p", 0, "parent document id (required)")
	bindDocumentFlags(command, &input)

	command.Flags().SortFlags = false

	return command
}

func getDocCmd() *cobra.Command {
	var docID uint
	var attachments bool

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:     "get",
		Short:   "get a document",
		Example: "knuth get -d <doc-id> --attachments=false",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			withClient(cmd, func(client *knuth.Client) error {
				record, err := client.Documents.RetrieveDocument(cmd.Context(), docID, attachments)
				if err != nil {
					return err
				}

				printRecords([]*service.DocumentRecord{record})
				printField("DOI", record.DOI)
				if record.Parent != nil {
					printField("Parent", fmt.Sprintf("%d %s", *record.Parent, record.ParentTitle))
				}
				printField("Tags", strings.Join(record.Tags, ", "))
				printField("Filename", record.Filename)

				keys := make([]string, 0, len(record.Meta))
				for key := range record.Meta {
					keys = append(keys, key)
				}
				sort.Strings(keys)
				for _, key := range keys {
					printField(key, record.Meta[key])
				}

				if len(record.Attachments) > 0 {
					fmt.Println()
					color.Cyan("Attachments")
					printRecords(record.Attachments)
				}

				return nil
			})
		},
	}

	command.Flags().UintVarP(&docID, "doc-id", "d", 0, "document id (required)")
	command.Flags().BoolVar(&attachments, "attachments", true, "include direct attachments")

	return command
}

func listDocCmd() *cobra.Command {
	command := &cobra.Command{
		Use:     "list",
		Short:   "list documents",
		Example: "knuth list",
		Run: func(cmd *cobra.Command, args []string) {
			withClient(cmd, func(client *knuth.Client) error {
				docs, err := client.Documents.ListDocuments(cmd.Context())
				if err != nil {
					return err
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.SetHeader([]string{"ID", "Type", "Parent", "Title", "Author", "Date"})
				for _, doc := range docs {
					parent := ""
					if doc.Parent != nil {
						parent = strconv.FormatUint(uint64(*doc.Parent), 10)
					}
					table.Append([]string{formatID(doc.ID), doc.Type, parent, doc.Title, doc.Author, doc.FormatDate()})
				}
				table.Render()

				return nil
			})
		},
	}

	return command
}

func updateDocCmd() *cobra.Command {
	var docID uint
	var values map[string]string

	var required = []string{"doc-id", "set"}

	command := &cobra.Command{
		Use:     "update",
		Short:   "update document fields",
		Long:    `set type, title, author, doi or parent. An empty parent detaches the document.`,
		Example: "knuth update -d <doc-id> --set title=<title> --set parent=",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			attrs, err := model.ParseAttributes(values)
			if err != nil {
				logrus.Error(err)
				return
			}

			withClient(cmd, func(client *knuth.Client) error {
				id, err := client.Documents.UpdateDocument(cmd.Context(), docID, attrs)
				if err != nil {
					return err
				}

				logrus.Infof("document updated: %d", id)
				return nil
			})
		},
	}

	command.Flags().UintVarP(&docID, "doc-id", "d", 0, "document id (required)")
	command.Flags().StringToStringVar(&values, "set", nil, "field=value, repeatable (required)")

	return command
}

func uploadDocCmd() *cobra.Command {
	var docID uint
	var path string

	var required = []string{"doc-id", "file"}

	command := &cobra.Command{
		Use:     "upload",
		Short:   "upload the payload of a document",
		Example: "knuth upload -d <doc-id> -f paper.pdf",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			file, err := os.Open(path)
			if err != nil {
				logrus.Error(err)
				return
			}
			defer file.Close()

			withClient(cmd, func(client *knuth.Client) error {
				filename, err := client.Uploads.UploadDocument(cmd.Context(), docID, service.UploadedFile{
					Name: filepath.Base(path),
					Body: file,
				})
				if filename != "" {
					logrus.Infof("stored as: %s", filename)
				}

				return err
			})
		},
	}

	command.Flags().UintVarP(&docID, "doc-id", "d", 0, "document id (required)")
	command.Flags().StringVarP(&path, "file", "f", "", "file to upload (required)")

	return command
}

func deleteDocCmd() *cobra.Command {
	var docID uint
	var dryRun bool
	var depthFirst bool

	var required = []string{"doc-id"}

	command := &cobra.Command{
		Use:     "delete",
		Short:   "delete a document with all of its attachments",
		Example: "knuth delete -d <doc-id> --dry-run",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			withClient(cmd, func(client *knuth.Client) error {
				if !dryRun {
					err := client.Documents.DeleteDocument(cmd.Context(), docID)
					if errors.Is(err, store.ErrDocumentNotFound) {
						logrus.Infof("document %d does not exist, nothing to delete", docID)
						return nil
					}
					if err != nil {
						return err
					}
					logrus.Infof("document deleted: %d", docID)
					return nil
				}

				order := service.BreadthFirst
				if depthFirst {
					order = service.DepthFirst
				}
				plan, err := client.Documents.PlanDeletion(cmd.Context(), docID, order)
				if err != nil {
					return err
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.SetHeader([]string{"#", "ID", "Filename"})
				for i, id := range plan.Documents {
					name, _, err := client.Resolver.Resolve(cmd.Context(), id)
					if err != nil {
						return err
					}
					table.Append([]string{strconv.Itoa(i + 1), formatID(id), name})
				}
				table.Render()
				printField("Order", plan.Order.String())

				return nil
			})
		},
	}

	command.Flags().UintVarP(&docID, "doc-id", "d", 0, "document id (required)")
	command.Flags().BoolVar(&dryRun, "dry-run", false, "print the documents that would be deleted")
	command.Flags().BoolVar(&depthFirst, "depth-first", false, "list the plan in depth-first order")

	return command
}

func indexDocCmd() *cobra.Command {
	var docID uint
	var all bool

	command := &cobra.Command{
		Use:     "index",
		Short:   "write index entries from the database",
		Example: "knuth index -d <doc-id>\nknuth index --all",
		Run: func(cmd *cobra.Command, args []string) {
			if !all && !cmd.Flag("doc-id").Changed {
				color.Red("missing: --doc-id or --all")
				return
			}

			withClient(cmd, func(client *knuth.Client) error {
				ids := []uint{docID}
				if all {
					docs, err := client.Documents.ListDocuments(cmd.Context())
					if err != nil {
						return err
					}
					ids = ids[:0]
					for _, doc := range docs {
						ids = append(ids, doc.ID)
					}
				}

				for _, id := range ids {
					if err := client.Indexer.SyncDocumentByID(cmd.Context(), id); err != nil {
						return err
					}
				}

				logrus.Infof("indexed %d documents", len(ids))
				return nil
			})
		},
	}

	command.Flags().UintVarP(&docID, "doc-id", "d", 0, "document id")
	command.Flags().BoolVar(&all, "all", false, "index every document")

	return command
}

// withClient opens a client for the duration of f and logs any error.
func withClient(cmd *cobra.Command, f func(client *knuth.Client) error) {
	client, err := openClient(cmd)
	if err != nil {
		logrus.Error(err)
		return
	}
	defer client.Close()

	if err := f(client); err != nil {
		logrus.Error(err)
	}
}

func printRecords(records []*service.DocumentRecord) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Type", "Title", "Author", "Date"})
	for _, r := range records {
		table.Append([]string{formatID(r.ID), r.Type, r.Title, r.Author, r.Date})
	}
	table.Render()
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func printField(label, value string) {
	color.Set(color.FgCyan)
	fmt.Print(label)
	color.Unset()
	fmt.Printf(": %s\n", value)
}

// checkMissingFlags checks if the required flags are set and returns true when some are missing
func checkMissingFlags(cmd *cobra.Command, flags []string) bool {
	var missingFlags []string
	var providedFlags []string
	for _, required := range flags {
		if !cmd.Flag(required).Changed {
			missingFlags = append(missingFlags, required)
		} else {
			value := cmd.Flag(required).Value.String()
			providedFlags = append(providedFlags, fmt.Sprintf("--%s=%s", required, value))
		}
	}

	if len(missingFlags) > 0 {
		var msg string
		for _, f := range missingFlags {
			msg += fmt.Sprintf("--%s ", f)
		}

		color.Red("missing: %s\n", msg)
		if len(providedFlags) > 0 {
			provided := strings.Join(providedFlags, " ")
			color.Green("provide: %s\n", provided)
		}

		cmd.Println("")
		_ = cmd.Usage()

		return true
	}

	return false
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/mlfactory/internal/config"
	"github.com/lucasnoah/mlfactory/internal/objectstore"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload the artifacts tree to an S3-compatible bucket",
	Long: `Upload every file under artifacts_root to the artifact_store bucket.

Endpoint and credentials are read from MLFACTORY_S3_ENDPOINT,
MLFACTORY_S3_ACCESS_KEY, MLFACTORY_S3_SECRET_KEY, MLFACTORY_S3_REGION and
MLFACTORY_S3_USE_SSL.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := config.Load(docPaths)
		if err != nil {
			return err
		}

		bucket, _ := cmd.Flags().GetString("bucket")
		if bucket == "" {
			bucket = store.Run.ArtifactStore.Bucket
		}
		if bucket == "" {
			return fmt.Errorf("no bucket: set artifact_store.bucket or pass --bucket")
		}
		prefix := store.Run.ArtifactStore.Prefix
		if cmd.Flags().Changed("prefix") {
			prefix, _ = cmd.Flags().GetString("prefix")
		}

		cfg, err := objectstore.ConfigFromEnv()
		if err != nil {
			return err
		}
		objects, err := objectstore.NewMinioStore(cfg)
		if err != nil {
			return err
		}

		keys, err := objectstore.Publish(cmd.Context(), objects, bucket, prefix, store.Run.ArtifactsRoot)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Published %d object(s) to s3://%s/%s\n", len(keys), bucket, prefix)
		return nil
	},
}

func init() {
	publishCmd.Flags().String("bucket", "", "Destination bucket (overrides artifact_store.bucket)")
	publishCmd.Flags().String("prefix", "", "Key prefix (overrides artifact_store.prefix)")
}

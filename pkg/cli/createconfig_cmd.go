package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const exampleConfig = `# snowclone project configuration
snowflake:
  account: myaccount.eu-central-1
  user: CLONE_SVC
  # password: set SNOWFLAKE_PASSWORD instead of storing it here
  warehouse: COMPUTE_WH
  database: PROD_DATALAKE
  schema: PUBLIC
  role: SYSADMIN

cloning:
  # Fallback timestamp for AT_TIME clones without their own.
  at_time: "2026-01-15 08:00:00"

rbac:
  service_roles:
    - name: SR_DATA_READER
      description: Read-only access to the cloned database
      privileges:
        databases:
          - privilege: USAGE
            objects: ["${TARGET_DATABASE}"]
        schemas:
          - privilege: USAGE
            objects: ["${TARGET_DATABASE}.PUBLIC"]
        tables:
          - privilege: SELECT
            objects: ["${TARGET_DATABASE}.PUBLIC.*"]
        warehouses:
          - privilege: USAGE
            objects: ["COMPUTE_WH"]
  system_full_roles:
    - name: SFULL_ENV_ADMIN
      description: Full control over the cloned database
      privileges:
        databases:
          - privilege: ALL
            objects: ["${TARGET_DATABASE}"]
  role_hierarchy:
    - parent: SFULL_ENV_ADMIN
      children: [SR_DATA_READER]
  user_assignments:
    - username: ANALYST_1
      roles: [SR_DATA_READER]

operation_templates:
  nightly_dev:
    databases:
      - source: PROD_DATALAKE
        target: DEV_DATALAKE
    tables:
      - source_db: PROD_DATALAKE
        source_schema: REFERENCE
        source_table: CALENDAR
        target_db: DEV_DATALAKE

refresh_schedules:
  - name: dev_refresh
    template: nightly_dev
    cron: "0 2 * * *"

logging:
  level: info
`

func newCreateConfigCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "create-config",
		Short: "Write an example project configuration file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if _, err := os.Stat(output); err == nil {
				return fmt.Errorf("%s already exists; remove it or choose another --output", output)
			}
			if err := os.WriteFile(output, []byte(exampleConfig), 0o600); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Printf("Wrote example configuration to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "config_example.yaml", "Path of the configuration file to create")
	return cmd
}

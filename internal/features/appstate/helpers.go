package appstate

import (
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/common/models"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/pkg/utils"

	"go.mongodb.org/mongo-driver/bson"
)

// phoneFields are the form_data keys the duplicate detector treats as
// phone-bearing. Substring match over these is a heuristic: form shapes
// vary by product and channel, so false positives are expected and get
// resolved by the applicant, not auto-merged.
var phoneFields = []string{"phone", "phone_number", "mobile_number", "whatsapp_number"}

// flattenForUpdate turns a nested document into dotted $set paths
// (prefix "form_data." or "metadata."). Updating by leaf path is what
// makes saveState a merge instead of an overwrite: keys absent from the
// incoming update keep their stored value at every nesting level, and
// two racing writers with disjoint keys both land.
func flattenForUpdate(prefix string, in map[string]any, out bson.M) {
	for k, v := range in {
		switch sub := v.(type) {
		case map[string]any:
			if len(sub) == 0 {
				out[prefix+k] = sub
				continue
			}
			flattenForUpdate(prefix+k+".", sub, out)
		case bson.M:
			if len(sub) == 0 {
				out[prefix+k] = sub
				continue
			}
			flattenForUpdate(prefix+k+".", map[string]any(sub), out)
		default:
			out[prefix+k] = v
		}
	}
}

// bestPhone digs a normalized phone number out of a state, preferring
// the dedicated form fields over the user identifier.
func bestPhone(st *models.ApplicationState) string {
	for _, field := range phoneFields {
		if v, ok := st.FormData[field].(string); ok {
			if digits := utils.NormalizePhone(v); digits != "" {
				return digits
			}
		}
	}
	return utils.NormalizePhone(st.UserIdentifier)
}

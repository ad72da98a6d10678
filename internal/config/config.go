package config

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"ataa/internal/domain"

	"gopkg.in/yaml.v3"
)

// Config models ataa.yml: organization identity, scoring-engine tuning and
// the workflow template catalog.
type Config struct {
	Org struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"org"`
	Scoring struct {
		ReadinessWeight    float64 `yaml:"readiness_weight"`
		AvailabilityWeight float64 `yaml:"availability_weight"`
		GrowthWeight       float64 `yaml:"growth_weight"`
		GreenThreshold     float64 `yaml:"green_threshold"`
		AmberThreshold     float64 `yaml:"amber_threshold"`
		ReadinessGate      float64 `yaml:"readiness_gate"`
	} `yaml:"scoring"`
	Workflows struct {
		Templates []domain.WorkflowTemplate `yaml:"templates"`
	} `yaml:"workflows"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with ataa org init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Org.ID == "" {
		return fmt.Errorf("config.org.id is required")
	}

	s := c.Scoring
	weightSum := s.ReadinessWeight + s.AvailabilityWeight + s.GrowthWeight
	if math.Abs(weightSum-1) > 0.001 {
		return fmt.Errorf("scoring weights must sum to 1, got %v", weightSum)
	}
	if s.GreenThreshold <= s.AmberThreshold {
		return fmt.Errorf("scoring.green_threshold must exceed amber_threshold")
	}
	if s.ReadinessGate < 0 || s.ReadinessGate > 100 {
		return fmt.Errorf("scoring.readiness_gate must be in [0,100]")
	}

	seen := map[string]bool{}
	for _, tpl := range c.Workflows.Templates {
		if tpl.ID == "" {
			return fmt.Errorf("workflow template with empty id")
		}
		if seen[tpl.ID] {
			return fmt.Errorf("duplicate workflow template id %s", tpl.ID)
		}
		seen[tpl.ID] = true
		if len(tpl.Steps) == 0 {
			return fmt.Errorf("template %s has no steps", tpl.ID)
		}
		for i, step := range tpl.Steps {
			if step.StepNumber != i+1 {
				return fmt.Errorf("template %s step %d has number %d", tpl.ID, i+1, step.StepNumber)
			}
			if step.Title == "" {
				return fmt.Errorf("template %s step %d has empty title", tpl.ID, step.StepNumber)
			}
			if step.EstimatedHours < 0 {
				return fmt.Errorf("template %s step %d has negative hours", tpl.ID, step.StepNumber)
			}
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "ataa.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault(orgID string) string {
	return fmt.Sprintf(defaultTemplate, orgID)
}

// Default returns the default Config struct for an organization.
func Default(orgID string) *Config {
	var cfg Config
	cfg.Org.ID = orgID
	_ = yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, orgID))).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `org:
  id: %s
  name: ""

scoring:
  readiness_weight: 0.5
  availability_weight: 0.3
  growth_weight: 0.2
  green_threshold: 70
  amber_threshold: 40
  readiness_gate: 40

workflows:
  templates:
    - id: marketing_campaign
      name: "حملة تسويقية"
      description: "خطوات إطلاق حملة تسويقية شاملة"
      category: marketing
      estimated_total_hours: 120
      required_roles: ["مدير تسويق", "مصمم", "كاتب محتوى"]
      steps:
        - step_number: 1
          title: "تحديد الأهداف والجمهور المستهدف"
          description: "وضع أهداف واضحة وقابلة للقياس وتحديد الجمهور المستهدف"
          required: true
          estimated_hours: 8
        - step_number: 2
          title: "دراسة المنافسين والسوق"
          description: "تحليل المنافسين واتجاهات السوق"
          required: true
          estimated_hours: 16
        - step_number: 3
          title: "تطوير الرسالة التسويقية"
          description: "صياغة رسالة تسويقية مؤثرة ومتسقة مع الهوية"
          required: true
          estimated_hours: 12
        - step_number: 4
          title: "تصميم المواد الإبداعية"
          description: "تصميم الصور والفيديوهات والإعلانات"
          required: true
          estimated_hours: 24
        - step_number: 5
          title: "اختيار القنوات التسويقية"
          description: "تحديد المنصات والقنوات المناسبة"
          required: true
          estimated_hours: 8
        - step_number: 6
          title: "إعداد الميزانية والجدول الزمني"
          description: "تخصيص الميزانية ووضع جدول زمني للحملة"
          required: true
          estimated_hours: 8
        - step_number: 7
          title: "الموافقة النهائية"
          description: "مراجعة واعتماد جميع المواد"
          required: true
          estimated_hours: 4
        - step_number: 8
          title: "إطلاق الحملة"
          description: "نشر المحتوى على جميع القنوات المختارة"
          required: true
          estimated_hours: 16
        - step_number: 9
          title: "المراقبة والتحسين"
          description: "متابعة الأداء وإجراء التحسينات"
          required: true
          estimated_hours: 24

    - id: event_planning
      name: "تنظيم فعالية"
      description: "خطوات تنظيم فعالية أو حدث"
      category: event
      estimated_total_hours: 80
      required_roles: ["منظم فعاليات", "منسق", "مصمم"]
      steps:
        - step_number: 1
          title: "تحديد نوع وأهداف الفعالية"
          description: "تحديد طبيعة الفعالية والأهداف المرجوة"
          required: true
          estimated_hours: 4
        - step_number: 2
          title: "اختيار التاريخ والمكان"
          description: "حجز المكان وتحديد الموعد المناسب"
          required: true
          estimated_hours: 8
        - step_number: 3
          title: "إعداد قائمة المدعوين"
          description: "تحديد وإعداد قائمة الضيوف والمتحدثين"
          required: true
          estimated_hours: 8
        - step_number: 4
          title: "التصميم والهوية البصرية"
          description: "تصميم الدعوات واللافتات والمواد الترويجية"
          required: true
          estimated_hours: 16
        - step_number: 5
          title: "الترتيبات اللوجستية"
          description: "ترتيب الطعام والمواصلات والمعدات"
          required: true
          estimated_hours: 16
        - step_number: 6
          title: "التسويق والترويج"
          description: "الترويج للفعالية عبر القنوات المختلفة"
          required: true
          estimated_hours: 12
        - step_number: 7
          title: "التنفيذ يوم الفعالية"
          description: "إدارة الفعالية وضمان سير الأمور بسلاسة"
          required: true
          estimated_hours: 8
        - step_number: 8
          title: "التقييم والتقرير النهائي"
          description: "تقييم النجاح وإعداد تقرير شامل"
          required: true
          estimated_hours: 8
`
